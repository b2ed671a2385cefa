// Package auth issues and checks the session tokens behind Google login.
//
// FLOW:
//  1. /auth/google/login redirects to Google with a random state cookie
//  2. Google calls /auth/google/callback with a code
//  3. The server exchanges the code for the Google profile
//  4. The server signs a JWT whose subject is the Google "sub" and whose
//     claims carry email, name and picture, and stores it in an HttpOnly
//     cookie
//  5. Middleware validates the cookie (or a Bearer header) on later calls
//     and puts the Session in the request context
//
// No user row is written at login; the collection service creates it on
// the first save.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "pokedex"

	// SessionTTL is how long a login stays valid.
	SessionTTL = 24 * time.Hour
)

// Session is what a valid token proves about the caller.
type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// TokenService signs and validates HS256 session tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the registered claims plus the profile.
type claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a token for s that expires after SessionTTL.
func (s *TokenService) Generate(sess Session) (string, error) {
	return s.GenerateWithDuration(sess, SessionTTL)
}

// GenerateWithDuration signs a token with a custom lifetime.
// A negative d produces an already-expired token, which tests use.
func (s *TokenService) GenerateWithDuration(sess Session, d time.Duration) (string, error) {
	if sess.UserID == "" {
		return "", errors.New("auth: session has no user ID")
	}
	now := time.Now()

	c := claims{
		Email:   sess.Email,
		Name:    sess.Name,
		Picture: sess.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenStr and returns the session it carries.
//
// WithValidMethods pins HS256 so a token claiming "alg: none" or RS256 is
// rejected before the key function runs.
func (s *TokenService) Validate(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Session{
		UserID:  c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}, nil
}
