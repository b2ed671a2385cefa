package pokeapi

import (
	"fmt"
	"math"
	"strings"
)

const (
	noDescription   = "No description available."
	defaultCategory = "Pokémon"
)

type named struct {
	Name string `json:"name"`
}

type pokemonDoc struct {
	Name   string `json:"name"`
	Height int    `json:"height"` // decimetres
	Weight int    `json:"weight"` // hectograms
	Types  []struct {
		Slot int   `json:"slot"`
		Type named `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability  named `json:"ability"`
		IsHidden bool  `json:"is_hidden"`
	} `json:"abilities"`
}

type speciesDoc struct {
	Name  string `json:"name"`
	Names []struct {
		Name     string `json:"name"`
		Language named  `json:"language"`
	} `json:"names"`
	FlavorTextEntries []struct {
		FlavorText string `json:"flavor_text"`
		Language   named  `json:"language"`
	} `json:"flavor_text_entries"`
	Genera []struct {
		Genus    string `json:"genus"`
		Language named  `json:"language"`
	} `json:"genera"`
	GenderRate int `json:"gender_rate"`
}

func (s *speciesDoc) name(lang string) string {
	for _, n := range s.Names {
		if n.Language.Name == lang {
			return n.Name
		}
	}
	return ""
}

// merge combines both documents. lang selects the description and category.
func merge(p *pokemonDoc, s *speciesDoc, lang string) *Species {
	out := &Species{
		NameEn:      firstNonEmpty(s.name("en"), p.Name),
		NameKo:      firstNonEmpty(s.name("ko"), s.Name),
		Description: description(s, lang),
		Types:       make([]string, 0, len(p.Types)),
		Height:      fmt.Sprintf("%.1f m", float64(p.Height)/10),
		Weight:      fmt.Sprintf("%.1f kg", float64(p.Weight)/10),
		Category:    category(s, lang),
		Ability:     ability(p),
		Gender:      Gender(s.GenderRate),
	}
	for _, t := range p.Types {
		out.Types = append(out.Types, t.Type.Name)
	}
	return out
}

func description(s *speciesDoc, lang string) string {
	for _, e := range s.FlavorTextEntries {
		if e.Language.Name == lang && strings.TrimSpace(e.FlavorText) != "" {
			return cleanFlavor(e.FlavorText)
		}
	}
	return noDescription
}

// cleanFlavor replaces the form feeds and line breaks the games embed.
func cleanFlavor(s string) string {
	return strings.NewReplacer("\f", " ", "\n", " ").Replace(s)
}

func category(s *speciesDoc, lang string) string {
	for _, g := range s.Genera {
		if g.Language.Name == lang && g.Genus != "" {
			return g.Genus
		}
	}
	if len(s.Genera) > 0 && s.Genera[0].Genus != "" {
		return s.Genera[0].Genus
	}
	return defaultCategory
}

func ability(p *pokemonDoc) string {
	for _, a := range p.Abilities {
		if !a.IsHidden {
			return a.Ability.Name
		}
	}
	if len(p.Abilities) > 0 {
		return p.Abilities[0].Ability.Name
	}
	return "-"
}

// Gender renders a gender_rate, the chance of being female in eighths.
func Gender(rate int) string {
	switch {
	case rate == -1:
		return "Genderless"
	case rate == 0:
		return "♂ only"
	case rate == 8:
		return "♀ only"
	case rate < -1 || rate > 8:
		return "-"
	}
	female := float64(rate) / 8 * 100
	male := 100 - female
	return fmt.Sprintf("♂ %d%% / ♀ %d%%", int(math.Round(male)), int(math.Round(female)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
