package asset

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type daeLoader struct{}

// COLLADA subset: geometry position sources, materials, and the
// material → effect → sampler → surface → image chain that names a
// diffuse texture. Both 1.4 (init_from text) and 1.5 (init_from/ref)
// image references are accepted.
type colladaDoc struct {
	XMLName    xml.Name      `xml:"COLLADA"`
	Images     []daeImage    `xml:"library_images>image"`
	Effects    []daeEffect   `xml:"library_effects>effect"`
	Materials  []daeMaterial `xml:"library_materials>material"`
	Geometries []struct {
		Sources []struct {
			ID         string `xml:"id,attr"`
			FloatArray string `xml:"float_array"`
		} `xml:"mesh>source"`
	} `xml:"library_geometries>geometry"`
}

type daeInitFrom struct {
	Text string `xml:",chardata"`
	Ref  string `xml:"ref"`
}

func (i daeInitFrom) value() string {
	if s := strings.TrimSpace(i.Ref); s != "" {
		return s
	}
	return strings.TrimSpace(i.Text)
}

type daeImage struct {
	ID       string      `xml:"id,attr"`
	InitFrom daeInitFrom `xml:"init_from"`
}

type daeShading struct {
	Diffuse *struct {
		Color   string `xml:"color"`
		Texture *struct {
			Texture string `xml:"texture,attr"`
		} `xml:"texture"`
	} `xml:"diffuse"`
}

type daeEffect struct {
	ID     string `xml:"id,attr"`
	Params []struct {
		SID     string `xml:"sid,attr"`
		Surface *struct {
			InitFrom daeInitFrom `xml:"init_from"`
		} `xml:"surface"`
		Sampler *struct {
			Source        string `xml:"source"`
			InstanceImage *struct {
				URL string `xml:"url,attr"`
			} `xml:"instance_image"`
		} `xml:"sampler2D"`
	} `xml:"profile_COMMON>newparam"`
	Technique struct {
		Phong   *daeShading `xml:"phong"`
		Lambert *daeShading `xml:"lambert"`
		Blinn   *daeShading `xml:"blinn"`
	} `xml:"profile_COMMON>technique"`
}

type daeMaterial struct {
	ID             string `xml:"id,attr"`
	Name           string `xml:"name,attr"`
	InstanceEffect struct {
		URL string `xml:"url,attr"`
	} `xml:"instance_effect"`
}

func (daeLoader) Load(r io.Reader) (*Scene, error) {
	var doc colladaDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("dae: decoding: %w", err)
	}

	scene := &Scene{}
	for _, g := range doc.Geometries {
		for _, src := range g.Sources {
			if !strings.Contains(strings.ToLower(src.ID), "position") {
				continue
			}
			b, err := boundsOfFloats(src.FloatArray)
			if err != nil {
				return nil, fmt.Errorf("dae: source %s: %w", src.ID, err)
			}
			scene.Bounds.Union(b)
		}
	}

	images := make(map[string]string, len(doc.Images))
	for _, img := range doc.Images {
		images[img.ID] = img.InitFrom.value()
	}
	effects := make(map[string]daeEffect, len(doc.Effects))
	for _, e := range doc.Effects {
		effects[e.ID] = e
	}

	for _, m := range doc.Materials {
		mat := Material{Name: m.Name}
		if mat.Name == "" {
			mat.Name = m.ID
		}
		if e, ok := effects[strings.TrimPrefix(m.InstanceEffect.URL, "#")]; ok {
			mat.Texture, mat.Color = e.diffuse(images)
		}
		scene.Materials = append(scene.Materials, mat)
	}
	return scene, nil
}

// diffuse follows the effect's diffuse texture back to an image path, or
// returns the diffuse color when there is no texture.
func (e daeEffect) diffuse(images map[string]string) (texture, color string) {
	var sh *daeShading
	for _, s := range []*daeShading{e.Technique.Phong, e.Technique.Lambert, e.Technique.Blinn} {
		if s != nil && s.Diffuse != nil {
			sh = s
			break
		}
	}
	if sh == nil {
		return "", ""
	}

	if sh.Diffuse.Texture != nil {
		ref := sh.Diffuse.Texture.Texture
		// sampler → surface → image id, falling back to a direct image id
		for hop := 0; hop < 3; hop++ {
			next := ""
			for _, p := range e.Params {
				if p.SID != ref {
					continue
				}
				switch {
				case p.Sampler != nil && p.Sampler.InstanceImage != nil:
					next = strings.TrimPrefix(p.Sampler.InstanceImage.URL, "#")
				case p.Sampler != nil:
					next = strings.TrimSpace(p.Sampler.Source)
				case p.Surface != nil:
					next = p.Surface.InitFrom.value()
				}
			}
			if next == "" {
				break
			}
			ref = next
		}
		if path, ok := images[ref]; ok {
			return path, ""
		}
	}

	if c := strings.Fields(sh.Diffuse.Color); len(c) >= 3 {
		var rgb [3]float64
		for i := range rgb {
			f, err := strconv.ParseFloat(c[i], 64)
			if err != nil {
				return "", ""
			}
			rgb[i] = f
		}
		return "", hexColor(rgb[0], rgb[1], rgb[2])
	}
	return "", ""
}

func boundsOfFloats(s string) (Bounds, error) {
	var b Bounds
	fields := strings.Fields(s)
	for i := 0; i+2 < len(fields); i += 3 {
		var p Vec3
		for j := 0; j < 3; j++ {
			f, err := strconv.ParseFloat(fields[i+j], 64)
			if err != nil {
				return Bounds{}, err
			}
			p[j] = f
		}
		b.Extend(p)
	}
	return b, nil
}
