package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pokedex/internal/apperror"
	"github.com/sakif/pokedex/internal/auth"
	"github.com/sakif/pokedex/internal/model"
	"github.com/sakif/pokedex/internal/repository"
)

// AuthService turns a Google profile into a session and answers "who am I".
//
//	AuthHandler (HTTP) → AuthService → UserRepository (read only)
//	                                ↘ TokenService (JWT)
//
// Login never writes a user row. The row appears on the first save, when
// the collection service upserts it from the profile in the request.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService wires the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult bundles the session and its signed token so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	Session auth.Session
	Token   string
}

// CompleteGoogleLogin issues a session token for a verified Google profile.
func (s *AuthService) CompleteGoogleLogin(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil || gUser.Sub == "" {
		return nil, fmt.Errorf("service/auth: Google user must have a subject")
	}

	sess := auth.Session{
		UserID:  gUser.Sub,
		Email:   gUser.Email,
		Name:    gUser.Name,
		Picture: gUser.Picture,
	}

	token, err := s.tokens.Generate(sess)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", sess.UserID, err)
	}

	s.logger.Info("user authenticated via Google", slog.String("userID", sess.UserID))
	return &AuthResult{Session: sess, Token: token}, nil
}

// Me returns the stored user for the session, or a user built from the
// session claims when nothing has been saved yet.
func (s *AuthService) Me(ctx context.Context, sess *auth.Session) (*model.User, error) {
	if sess == nil || sess.UserID == "" {
		return nil, fmt.Errorf("service/auth: session must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", sess.UserID, err)
	}

	u := &model.User{ID: sess.UserID, Email: sess.Email, Name: sess.Name}
	if sess.Picture != "" {
		pic := sess.Picture
		u.Picture = &pic
	}
	return u, nil
}

// OwnerID decides whose collection a request targets.
//
//   - no session:                the requested id, which must be present
//   - session, nothing requested: the session's user
//   - session, same id:          that id
//   - session, different id:     apperror.ErrForbidden
func OwnerID(sess *auth.Session, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if sess == nil || sess.UserID == "" {
		if requested == "" {
			return "", apperror.ValidationFailed("userId", "userId is required")
		}
		return requested, nil
	}
	if requested == "" || requested == sess.UserID {
		return sess.UserID, nil
	}
	return "", apperror.Forbidden("userId does not match the signed-in user")
}

// ProfileFromSession fills empty profile fields from the session claims.
func ProfileFromSession(p model.Profile, sess *auth.Session) model.Profile {
	if sess == nil {
		return p
	}
	if p.Email == "" {
		p.Email = sess.Email
	}
	if p.Name == "" {
		p.Name = sess.Name
	}
	if p.Picture == "" {
		p.Picture = sess.Picture
	}
	return p
}
