package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/remnant-dksh/origin-engine/internal/apperrors"
	"github.com/remnant-dksh/origin-engine/internal/models"
	"github.com/remnant-dksh/origin-engine/internal/repository"
	"github.com/remnant-dksh/origin-engine/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

type AuthService struct {
	// Manager to issue and validate tokens
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repositories for long term data
	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo, refreshRepo repository.RefreshTokenRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if token == nil || userRepo == nil || refreshRepo == nil {
		return nil, errors.New("token manager and repos must not be nil")
	}

	return &AuthService{
		token:       token,
		hasher:      hasher,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
	}, nil
}

// Register creates a user and issues a token pair
// Returns apperrors.ErrEmailTaken if the email is already registered
func (s *AuthService) Register(ctx context.Context, email string, name string, password string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, name, hash)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Login verifies credentials and issues a token pair
// Unknown email and wrong password both return apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	case err != nil:
		// Storage failures must not masquerade as bad credentials
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't load user by email: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh validates the refresh token and issues a new access token only.
// The refresh token is not rotated: the stored row stays valid until its
// expiry or until the user logs out.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	stored, err := s.token.CheckRefresh(ctx, refresh)
	if err != nil {
		return models.IssuedToken{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return models.IssuedToken{}, err
	}

	access, err := s.token.IssueAccess(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return access, nil
}

// Logout revokes the refresh token by deleting it from the store.
// Idempotent: revoking an unknown token succeeds too.
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return nil
	}

	_, err := s.refreshRepo.DeleteByToken(ctx, refresh)
	return err
}

// ParseAccess validates an access token and returns its claims
func (s *AuthService) ParseAccess(access string) (tokenmanager.Claims, error) {
	return s.token.ParseAccess(access)
}

// User loads the account a validated token points at
// Returns apperrors.ErrUserNotFound if the account is gone
func (s *AuthService) User(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
