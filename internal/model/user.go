// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the owner of a saved-pokemon collection.
//
// ID is the identity provider's subject ("sub" claim for Google), not an id
// we generate. A row appears the first time the user saves a pokemon and is
// refreshed from the profile on every later save.
type User struct {
	ID        string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   *string   `json:"picture,omitempty"` // nullable avatar URL
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the identity data sent along with a save request.
// Email and Name are required only when the user row does not exist yet.
// For an existing user, empty Email or Name keep the stored value, while
// Picture is replaced (cleared when empty) unless the whole profile is empty.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// IsEmpty reports whether the request carried no identity data at all.
func (p Profile) IsEmpty() bool {
	return p.Email == "" && p.Name == "" && p.Picture == ""
}

// PicturePtr returns Picture as a nullable column value.
func (p Profile) PicturePtr() *string {
	if p.Picture == "" {
		return nil
	}
	pic := p.Picture
	return &pic
}
