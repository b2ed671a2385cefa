package asset

// DefaultMatteColor is applied to materials without a texture.
const DefaultMatteColor = "#888888"

// MatteParams is the flat, non-reflective preset every material is
// rewritten to.
type MatteParams struct {
	Color        string  `json:"color,omitempty"`
	Metalness    float64 `json:"metalness"`
	Roughness    float64 `json:"roughness"`
	Shininess    float64 `json:"shininess"`
	Specular     string  `json:"specular"`
	Reflectivity float64 `json:"reflectivity"`
	EnvMap       bool    `json:"env_map"`
}

// Matte returns the matte preset for m. textured reports whether a
// texture will be bound: textured materials keep their declared color,
// untextured ones are painted grey.
func Matte(m Material, textured bool) MatteParams {
	p := MatteParams{
		Metalness:    0,
		Roughness:    1,
		Shininess:    0,
		Specular:     "#000000",
		Reflectivity: 0,
		EnvMap:       false,
	}
	if textured {
		p.Color = m.Color
	} else {
		p.Color = DefaultMatteColor
	}
	return p
}
