package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/remnant-dksh/origin-engine/internal/apperrors"
	"github.com/remnant-dksh/origin-engine/internal/models"
	"github.com/remnant-dksh/origin-engine/internal/repository"
)

const (
	defaultAccessTokenTTL  = 1 * time.Hour
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims carried by both access and refresh tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign tokens
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// IssueAccess signs a short lived stateless access token for the user
func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	value, err := m.sign(user, now, expiresAt)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// GeneratePair issues an access token and a refresh token and persists
// the refresh token with its expiry
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	access, err := m.sign(user, now, accessExpiresAt)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.sign(user, now, refreshExpiresAt)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// CheckRefresh validates a refresh token: the signature must verify AND the
// token must still be present in the store and not past its stored expiry.
// The stored expiry is authoritative, so embedded claims are not validated.
// The stored row is left untouched; refresh tokens are not rotated on use.
func (m *TokenManager) CheckRefresh(ctx context.Context, refresh string) (models.RefreshToken, error) {
	_, err := m.parse(refresh, jwt.WithoutClaimsValidation())
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while parsing refresh token. Err: %w", apperrors.ErrRefreshTokenInvalid)
	}

	token, err := m.refreshRepo.Get(ctx, refresh)
	if err != nil {
		return token, err
	}

	if token.ExpiresAt.Before(time.Now()) {
		return token, fmt.Errorf("refresh token expired at %s. Err: %w", token.ExpiresAt, apperrors.ErrRefreshTokenExpired)
	}

	return token, nil
}

// ParseAccess validates the access token and returns its claims
func (m *TokenManager) ParseAccess(access string) (Claims, error) {
	claims, err := m.parse(access)
	if err != nil {
		return claims, fmt.Errorf("error while parsing or validating token. Err: %w", apperrors.ErrAccessTokenInvalid)
	}

	return claims, nil
}

func (m *TokenManager) sign(user models.User, now time.Time, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: user.ID,
			Email:  user.Email,
		},
	)

	return token.SignedString([]byte(m.key))
}

func (m *TokenManager) parse(value string, opts ...jwt.ParserOption) (Claims, error) {
	claims := &Claims{}

	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{m.alg.Alg()})}, opts...)
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		opts...,
	)
	if err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
