package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// One slice of cases, one loop of assertions. Each case shows up by name in
// `go test -v` output, e.g. TestErrorsIs/Storage_wraps_ErrStorage.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("pokemon", "25"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("pokemonId", "pokemonId must be a positive integer"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("pokemon", "25"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Storage wraps ErrStorage",
			err:       Storage("08006", errors.New("connection refused")),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("userId does not match the session"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("pokeapi", errors.New("status 503")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("service: removing: %w", NotFound("pokemon", "25")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("pokemon", "25"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Storage does NOT match ErrConflict",
			err:       Storage("23503", errors.New("fk violation")),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("pokemon", "25"),
			wantMessage: "pokemon not found with id 25",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("userId", "userId is required"),
			wantMessage: "userId is required",
		},
		{
			name:        "Storage uses the cause message",
			err:         Storage("", errors.New("dial tcp: refused")),
			wantMessage: "dial tcp: refused",
		},
		{
			name:        "Upstream names the service",
			err:         Upstream("pokeapi", errors.New("status 503")),
			wantMessage: "pokeapi: status 503",
		},
		{
			name:        "Storage without cause",
			err:         Storage("", nil),
			wantMessage: "storage failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("pokemon", "25")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "email is required for a new user")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

// =========================================================================
// PROVIDER CODES AND HINTS
// =========================================================================

func TestStorage_Hints(t *testing.T) {
	tests := []struct {
		code     string
		wantHint bool
	}{
		{"42P01", true},
		{"3D000", true},
		{"28P01", true},
		{"23503", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("code "+tt.code, func(t *testing.T) {
			err := Storage(tt.code, errors.New("x"))
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
			if got := err.Hint != ""; got != tt.wantHint {
				t.Errorf("Hint = %q, want hint present = %v", err.Hint, tt.wantHint)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("repo: %w", Storage("42P01", errors.New("relation does not exist")))
	if got := CodeOf(wrapped); got != "42P01" {
		t.Errorf("CodeOf() = %q, want %q", got, "42P01")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}
