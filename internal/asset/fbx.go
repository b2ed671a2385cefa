package asset

import (
	"bytes"
	"fmt"
	"io"
)

var (
	fbxBinaryMagic = []byte("Kaydara FBX Binary  \x00")
	fbxASCIIMagic  = []byte("; FBX")
)

type fbxLoader struct{}

// Load only checks that r is an FBX file. Geometry is not decoded, so the
// scene has empty bounds and no materials.
func (fbxLoader) Load(r io.Reader) (*Scene, error) {
	head := make([]byte, len(fbxBinaryMagic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("fbx: reading header: %w", err)
	}
	head = head[:n]

	if bytes.Equal(head, fbxBinaryMagic) || bytes.HasPrefix(bytes.TrimLeft(head, "\ufeff \t\r\n"), fbxASCIIMagic) {
		return &Scene{}, nil
	}
	return nil, fmt.Errorf("fbx: not an FBX file")
}
