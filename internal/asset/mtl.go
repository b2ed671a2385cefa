package asset

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// MTLEntry is one newmtl block of a Wavefront material library.
type MTLEntry struct {
	Name       string
	DiffuseMap string // map_Kd
}

// ParseMTL reads newmtl blocks and their map_Kd textures. Unknown
// statements are skipped.
func ParseMTL(r io.Reader) ([]MTLEntry, error) {
	var (
		out     []MTLEntry
		current = -1
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			out = append(out, MTLEntry{Name: strings.Join(fields[1:], " ")})
			current = len(out) - 1
		case "map_Kd":
			if current >= 0 {
				out[current].DiffuseMap = strings.Join(fields[1:], " ")
			}
		}
	}
	return out, sc.Err()
}

// TexturesFor returns the distinct map_Kd textures of entries whose name
// equals materialName or contains it, or is contained in it.
func TexturesFor(entries []MTLEntry, materialName string) []string {
	var out []string
	for _, e := range entries {
		if e.DiffuseMap == "" || !namesMatch(e.Name, materialName) {
			continue
		}
		dup := false
		for _, t := range out {
			if t == e.DiffuseMap {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e.DiffuseMap)
		}
	}
	return out
}

func namesMatch(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

var namePartSep = regexp.MustCompile(`[:_]`)

// MatchTexture finds the texture for materialName. When the whole name has
// no match, each ':' or '_' separated part longer than three characters is
// tried in order.
func MatchTexture(entries []MTLEntry, materialName string) string {
	if ts := TexturesFor(entries, materialName); len(ts) > 0 {
		return ts[0]
	}
	for _, part := range namePartSep.Split(materialName, -1) {
		if len(part) <= 3 {
			continue
		}
		if ts := TexturesFor(entries, part); len(ts) > 0 {
			return ts[0]
		}
	}
	return ""
}
