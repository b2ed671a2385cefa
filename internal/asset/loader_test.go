package asset

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"/pokemon/25/pm0025_00_00.dae", FormatDAE},
		{"/pokemon/25/model.DAE", FormatDAE},
		{"/pokemon/25/model.fbx?v=3", FormatFBX},
		{"/pokemon/25/model.obj", FormatOBJ},
		{"/pokemon/25/model.glb", FormatGLTF},
		{"/pokemon/25/model.gltf#node", FormatGLTF},
		{"/pokemon/25/model.3ds", FormatDAE},
		{"/pokemon/25/model", FormatDAE},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

// ===== OBJ =====

const sampleOBJ = `# cube
mtllib pika.mtl
v -1 0 -1
v 1 2 1
v 0 1 3
usemtl Body
f 1 2 3
usemtl Eyes
usemtl Body
`

func TestOBJLoader(t *testing.T) {
	scene, err := LoaderFor(FormatOBJ).Load(strings.NewReader(sampleOBJ))
	require.NoError(t, err)

	assert.Equal(t, Vec3{-1, 0, -1}, scene.Bounds.Min)
	assert.Equal(t, Vec3{1, 2, 3}, scene.Bounds.Max)
	assert.Equal(t, []string{"pika.mtl"}, scene.MaterialLibs)
	require.Len(t, scene.Materials, 2)
	assert.Equal(t, "Body", scene.Materials[0].Name)
	assert.Equal(t, "Eyes", scene.Materials[1].Name)
}

func TestOBJLoader_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"bad number":  "v 1 x 2\n",
		"short":       "v 1 2\n",
		"no vertices": "usemtl A\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoaderFor(FormatOBJ).Load(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

// ===== GLTF =====

const sampleGLTF = `{
  "asset": {"version": "2.0"},
  "accessors": [
    {"min": [-1, 0, -0.5], "max": [1, 3, 0.5]},
    {"min": [0, 0], "max": [1, 1]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 1}}]}],
  "materials": [
    {"name": "Skin", "pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}},
    {"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}}
  ],
  "textures": [{"source": 0}],
  "images": [{"uri": "textures/skin.png"}]
}`

func TestGLTFLoader_JSON(t *testing.T) {
	scene, err := LoaderFor(FormatGLTF).Load(strings.NewReader(sampleGLTF))
	require.NoError(t, err)

	assert.Equal(t, Vec3{-1, 0, -0.5}, scene.Bounds.Min)
	assert.Equal(t, Vec3{1, 3, 0.5}, scene.Bounds.Max)
	require.Len(t, scene.Materials, 2)
	assert.Equal(t, "textures/skin.png", scene.Materials[0].Texture)
	assert.Equal(t, "material_1", scene.Materials[1].Name)
	assert.Equal(t, "#ff0000", scene.Materials[1].Color)
}

func glb(t *testing.T, json string) []byte {
	t.Helper()
	for len(json)%4 != 0 {
		json += " "
	}
	var buf bytes.Buffer
	buf.WriteString("glTF")
	binary.Write(&buf, binary.LittleEndian, uint32(2))
	binary.Write(&buf, binary.LittleEndian, uint32(20+len(json)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(json)))
	binary.Write(&buf, binary.LittleEndian, uint32(glbChunkJSON))
	buf.WriteString(json)
	return buf.Bytes()
}

func TestGLTFLoader_Binary(t *testing.T) {
	scene, err := LoaderFor(FormatGLTF).Load(bytes.NewReader(glb(t, sampleGLTF)))
	require.NoError(t, err)
	assert.Equal(t, Vec3{1, 3, 0.5}, scene.Bounds.Max)

	truncated := glb(t, sampleGLTF)[:30]
	_, err = LoaderFor(FormatGLTF).Load(bytes.NewReader(truncated))
	assert.Error(t, err)
}

// ===== DAE =====

const sampleDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_images>
    <image id="body-img"><init_from>C:\exports\pm0025_body.png</init_from></image>
  </library_images>
  <library_effects>
    <effect id="body-fx">
      <profile_COMMON>
        <newparam sid="body-surface"><surface type="2D"><init_from>body-img</init_from></surface></newparam>
        <newparam sid="body-sampler"><sampler2D><source>body-surface</source></sampler2D></newparam>
        <technique sid="common">
          <phong><diffuse><texture texture="body-sampler" texcoord="UVMap"/></diffuse></phong>
        </technique>
      </profile_COMMON>
    </effect>
    <effect id="eye-fx">
      <profile_COMMON>
        <technique sid="common">
          <lambert><diffuse><color>0 0 1 1</color></diffuse></lambert>
        </technique>
      </profile_COMMON>
    </effect>
  </library_effects>
  <library_materials>
    <material id="body-mat" name="pm0025_Body"><instance_effect url="#body-fx"/></material>
    <material id="eye-mat"><instance_effect url="#eye-fx"/></material>
  </library_materials>
  <library_geometries>
    <geometry id="mesh">
      <mesh>
        <source id="mesh-positions">
          <float_array id="mesh-positions-array" count="6">-2 0 -1 2 4 1</float_array>
        </source>
        <source id="mesh-normals">
          <float_array id="mesh-normals-array" count="3">100 100 100</float_array>
        </source>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestDAELoader(t *testing.T) {
	scene, err := LoaderFor(FormatDAE).Load(strings.NewReader(sampleDAE))
	require.NoError(t, err)

	assert.Equal(t, Vec3{-2, 0, -1}, scene.Bounds.Min)
	assert.Equal(t, Vec3{2, 4, 1}, scene.Bounds.Max, "normals are not positions")

	require.Len(t, scene.Materials, 2)
	assert.Equal(t, "pm0025_Body", scene.Materials[0].Name)
	assert.Equal(t, `C:\exports\pm0025_body.png`, scene.Materials[0].Texture)
	assert.Equal(t, "eye-mat", scene.Materials[1].Name)
	assert.Equal(t, "#0000ff", scene.Materials[1].Color)
}

func TestDAELoader_Malformed(t *testing.T) {
	_, err := LoaderFor(FormatDAE).Load(strings.NewReader("<COLLADA><library_geometries>"))
	assert.Error(t, err)
}

// ===== FBX =====

func TestFBXLoader(t *testing.T) {
	binaryHeader := append([]byte("Kaydara FBX Binary  \x00"), 0x1a, 0x00)
	_, err := LoaderFor(FormatFBX).Load(bytes.NewReader(binaryHeader))
	assert.NoError(t, err)

	scene, err := LoaderFor(FormatFBX).Load(strings.NewReader("; FBX 7.4.0 project file\n"))
	require.NoError(t, err)
	assert.True(t, scene.Bounds.Empty())

	_, err = LoaderFor(FormatFBX).Load(strings.NewReader("not a model"))
	assert.Error(t, err)
}
