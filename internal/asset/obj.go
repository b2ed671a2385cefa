package asset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type objLoader struct{}

// Load reads vertex positions, usemtl names and mtllib references.
// Faces, normals and texture coordinates are ignored.
func (objLoader) Load(r io.Reader) (*Scene, error) {
	scene := &Scene{}
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj: line %d: vertex needs 3 coordinates", lineNo)
			}
			var p Vec3
			for i := 0; i < 3; i++ {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("obj: line %d: %w", lineNo, err)
				}
				p[i] = f
			}
			scene.Bounds.Extend(p)

		case "usemtl":
			name := strings.Join(fields[1:], " ")
			if name != "" && !seen[name] {
				seen[name] = true
				scene.Materials = append(scene.Materials, Material{Name: name})
			}

		case "mtllib":
			scene.MaterialLibs = append(scene.MaterialLibs, strings.Join(fields[1:], " "))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if scene.Bounds.Empty() {
		return nil, fmt.Errorf("obj: no vertices")
	}
	return scene, nil
}
