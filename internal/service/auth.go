// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services accept primitives and small input structs, never HTTP types, and
// return domain errors (apperror.*), never status codes. Handlers translate
// in both directions. Every service takes repository INTERFACES, so tests
// inject the memory store and production injects sqlite — the service can't
// tell the difference.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
)

// usernamePattern: letters, digits, underscores, hyphens. Keeps usernames
// URL-safe since they appear in /api/users/{username}.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// AuthService handles registration, login, and session validation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new password-based account.
//
// Duplicate usernames and emails come back as VALIDATION errors (400), not
// conflicts — from the registering user's point of view "that name is taken"
// is the same kind of problem as "that name is too short".
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username",
			"username may only contain letters, digits, underscores, and hyphens")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  username,
		Rank:         model.RankDefault,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// The store reports duplicates as a conflict; surface it to the
		// registering user as a validation failure.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("username", "username or email already taken")
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by username OR email plus password.
//
// Wrong identifier and wrong password produce the SAME error — handing out
// "no such user" vs "wrong password" lets attackers enumerate accounts.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	user, err := s.users.GetUserByUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up %q: %w", identifier, err)
		}
		user, err = s.users.GetUserByEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.Unauthorized("invalid username or password")
			}
			return nil, fmt.Errorf("service/auth: looking up %q: %w", identifier, err)
		}
	}

	// OAuth-only accounts have no password hash; they must log in via GitHub.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: match an existing
// account by GitHub ID or create a fresh one, then issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, ghUser.ID)
	switch {
	case err == nil:
		// Known account — refresh the avatar in case it changed on GitHub.
		if ghUser.AvatarURL != "" && ghUser.AvatarURL != user.AvatarURL {
			user.AvatarURL = ghUser.AvatarURL
			if err := s.users.UpdateUser(ctx, user); err != nil {
				s.logger.Warn("failed to refresh avatar from GitHub",
					slog.String("userID", user.ID),
					slog.String("error", err.Error()),
				)
			}
		}

	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.registerFromGitHub(ctx, ghUser)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("service/auth: looking up github id %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// registerFromGitHub creates a local account for a first-time GitHub login.
// The GitHub login becomes the username; if it's already taken locally we
// append a short random suffix rather than fail the whole flow.
func (s *AuthService) registerFromGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	email := ghUser.Email
	if email == "" {
		// GitHub hides the email when the user opts out; synthesize the
		// noreply form GitHub itself uses so the column stays unique.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	displayName := ghUser.Name
	if displayName == "" {
		displayName = ghUser.Login
	}

	user := &model.User{
		Username:    ghUser.Login,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   ghUser.AvatarURL,
		Rank:        model.RankDefault,
		GitHubID:    ghUser.ID,
	}

	err := s.users.CreateUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user.Username = ghUser.Login + "-" + xid.New().String()[15:]
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating account for github id %d: %w", ghUser.ID, err)
	}

	return user, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/auth/me handler after the middleware validates the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// ValidateToken validates a session token and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

// IsAdmin reports whether the given user holds the admin rank.
// Satisfies auth.RankChecker, so AuthService plugs straight into the
// RequireAdmin middleware.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}
