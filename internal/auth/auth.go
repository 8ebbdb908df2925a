package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is what the store returns for a login or token check.
type Credentials struct {
	UserID       int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	Status       string `db:"status"`
}

const StatusActive = "active"

func (c *Credentials) IsActive() bool {
	return c.Status == StatusActive
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ResolveIdentity(ctx context.Context, claims *Claims) (Identity, error)
}

type RepositoryAPI interface {
	GetCredentialsByUsername(ctx context.Context, username string) (*Credentials, error)
	GetCredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
}

// TokenGenerator creates and checks signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, role Role) (string, error)
	GenerateRefreshToken(userID int64, role Role) (string, error)
	ValidateToken(tokenString string, kind TokenKind) (*Claims, error)
}

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         Role   `json:"role"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID int64     `json:"user_id"`
	Role   Role      `json:"role"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// ErrCredentialsNotFound is returned by repositories when no user matches.
var ErrCredentialsNotFound = errors.New("credentials not found")
