package model

import "time"

// Storage types recorded on ModelMetadata.
const (
	StorageLocal = "local"
	StorageCDN   = "cdn"
)

// ModelMetadata caches the result of a filesystem scan for one species.
// The filesystem stays the source of truth: a row is re-verified on read.
type ModelMetadata struct {
	PokemonID   int       `json:"pokemon_id"`
	ModelPath   string    `json:"model_path"` // URL path, e.g. /pokemon/25/pm0025_00_00.dae
	CDNURL      *string   `json:"cdn_url"`
	ModelType   string    `json:"model_type"` // file extension without the dot
	FileSize    *int64    `json:"file_size,omitempty"`
	StorageType string    `json:"storage_type"`
	IsPrimary   bool      `json:"is_primary"`
	FileExists  bool      `json:"file_exists"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModelResolution is the answer to "which 3D file should I render for this id?".
//
// When nothing is found on disk FileExists is false, ModelPath holds the
// canonical fallback path and Error explains why. Callers must check
// FileExists before loading.
type ModelResolution struct {
	PokemonID   int     `json:"pokemon_id"`
	ModelPath   string  `json:"model_path"`
	CDNURL      *string `json:"cdn_url"`
	ModelType   string  `json:"model_type"`
	StorageType string  `json:"storage_type"`
	FileExists  bool    `json:"file_exists"`
	FileSize    *int64  `json:"file_size,omitempty"`
	URL         string  `json:"url"`
	Error       string  `json:"error,omitempty"`
}
