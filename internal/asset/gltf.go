package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	glbMagic     = "glTF"
	glbChunkJSON = 0x4E4F534A
)

type gltfLoader struct{}

type gltfDoc struct {
	Accessors []struct {
		Min []float64 `json:"min"`
		Max []float64 `json:"max"`
	} `json:"accessors"`
	Meshes []struct {
		Primitives []struct {
			Attributes map[string]int `json:"attributes"`
		} `json:"primitives"`
	} `json:"meshes"`
	Materials []struct {
		Name string `json:"name"`
		PBR  *struct {
			BaseColorFactor  []float64 `json:"baseColorFactor"`
			BaseColorTexture *struct {
				Index int `json:"index"`
			} `json:"baseColorTexture"`
		} `json:"pbrMetallicRoughness"`
	} `json:"materials"`
	Textures []struct {
		Source *int `json:"source"`
	} `json:"textures"`
	Images []struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	} `json:"images"`
}

// Load accepts both .gltf JSON and the binary .glb container.
// Bounds come from the min/max of every POSITION accessor.
func (gltfLoader) Load(r io.Reader) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gltf: reading: %w", err)
	}
	if bytes.HasPrefix(data, []byte(glbMagic)) {
		if data, err = glbJSONChunk(data); err != nil {
			return nil, err
		}
	}

	var doc gltfDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gltf: decoding: %w", err)
	}

	scene := &Scene{}
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes["POSITION"]
			if !ok || idx < 0 || idx >= len(doc.Accessors) {
				continue
			}
			acc := doc.Accessors[idx]
			if len(acc.Min) < 3 || len(acc.Max) < 3 {
				continue
			}
			scene.Bounds.Extend(Vec3{acc.Min[0], acc.Min[1], acc.Min[2]})
			scene.Bounds.Extend(Vec3{acc.Max[0], acc.Max[1], acc.Max[2]})
		}
	}

	for i, m := range doc.Materials {
		mat := Material{Name: m.Name}
		if mat.Name == "" {
			mat.Name = fmt.Sprintf("material_%d", i)
		}
		if m.PBR != nil {
			if f := m.PBR.BaseColorFactor; len(f) >= 3 {
				mat.Color = hexColor(f[0], f[1], f[2])
			}
			if t := m.PBR.BaseColorTexture; t != nil && t.Index >= 0 && t.Index < len(doc.Textures) {
				if src := doc.Textures[t.Index].Source; src != nil && *src >= 0 && *src < len(doc.Images) {
					img := doc.Images[*src]
					mat.Texture = img.URI
					if mat.Texture == "" {
						mat.Texture = img.Name
					}
				}
			}
		}
		scene.Materials = append(scene.Materials, mat)
	}
	return scene, nil
}

// glbJSONChunk returns the JSON chunk of a GLB container.
//
//	header: magic(4) version(4) length(4)
//	chunk:  length(4) type(4) data(length)
func glbJSONChunk(data []byte) ([]byte, error) {
	if len(data) < 20 {
		return nil, fmt.Errorf("gltf: glb too short")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != 2 {
		return nil, fmt.Errorf("gltf: unsupported glb version %d", v)
	}
	n := binary.LittleEndian.Uint32(data[12:16])
	if binary.LittleEndian.Uint32(data[16:20]) != glbChunkJSON {
		return nil, fmt.Errorf("gltf: first glb chunk is not JSON")
	}
	if uint64(20)+uint64(n) > uint64(len(data)) {
		return nil, fmt.Errorf("gltf: glb JSON chunk overruns file")
	}
	return data[20 : 20+n], nil
}
