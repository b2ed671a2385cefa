package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putErr  error
	putKey  string
	putOpts minioLib.PutObjectOptions
	putSize int64
	putData []byte

	statInfo minioLib.ObjectInfo
	statErr  error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, key string, r io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	data, _ := io.ReadAll(r)
	f.putKey, f.putOpts, f.putSize, f.putData = key, opts, size, data
	return minioLib.UploadInfo{Key: key, Size: int64(len(data))}, nil
}
func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return f.statInfo, f.statErr
}

func TestNewClientWithAPI_BucketExists(t *testing.T) {
	api := &fakeMinio{bucketExists: true}
	c, err := NewClientWithAPI(context.Background(), api, "models", "https://cdn.example.com/models/")
	require.NoError(t, err)
	assert.Equal(t, "models", c.bucket)
	assert.False(t, api.madeBucket)
}

func TestNewClientWithAPI_CreateBucket(t *testing.T) {
	api := &fakeMinio{bucketExists: false}
	_, err := NewClientWithAPI(context.Background(), api, "models", "")
	require.NoError(t, err)
	assert.True(t, api.madeBucket)
}

func TestNewClientWithAPI_Errors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeMinio
	}{
		{"bucket check fails", &fakeMinio{bucketExistsErr: errors.New("boom")}},
		{"bucket create fails", &fakeMinio{makeBucketErr: errors.New("fail")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClientWithAPI(context.Background(), tt.api, "models", "")
			assert.Nil(t, c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to ensure bucket exists")
		})
	}
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{}
		c := &Client{api: api, bucket: "models", publicURL: "https://cdn.example.com/models"}

		url, err := c.Upload(ctx, "25/pm0025_00_00.dae", bytes.NewReader([]byte("<COLLADA/>")), 10, "")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/models/25/pm0025_00_00.dae", url)
		assert.Equal(t, "25/pm0025_00_00.dae", api.putKey)
		assert.Equal(t, "model/vnd.collada+xml", api.putOpts.ContentType)
		assert.Equal(t, int64(10), api.putSize)
		assert.Equal(t, []byte("<COLLADA/>"), api.putData)
	})

	t.Run("error", func(t *testing.T) {
		api := &fakeMinio{putErr: errors.New("put-fail")}
		c := &Client{api: api, bucket: "models"}
		_, err := c.Upload(ctx, "k", bytes.NewReader(nil), 0, "image/png")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload object")
	})
}

func TestClient_Stat(t *testing.T) {
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		c := &Client{api: &fakeMinio{statInfo: minioLib.ObjectInfo{Size: 42}}, bucket: "b"}
		size, ok, err := c.Stat(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(42), size)
	})

	t.Run("missing", func(t *testing.T) {
		notFound := minioLib.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
		c := &Client{api: &fakeMinio{statErr: notFound}, bucket: "b"}
		_, ok, err := c.Stat(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("error", func(t *testing.T) {
		c := &Client{api: &fakeMinio{statErr: errors.New("stat-fail")}, bucket: "b"}
		_, _, err := c.Stat(ctx, "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to stat object")
	})
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.dae":   "model/vnd.collada+xml",
		"a.GLB":   "model/gltf-binary",
		"a.mtl":   "model/mtl",
		"a.png":   "image/png",
		"a.weird": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}
