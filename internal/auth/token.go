package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	// ErrTokenExpired is returned for a well-formed credential past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed, unsigned or tampered credentials.
	ErrTokenInvalid = errors.New("token invalid")
)

// CredentialIssuer signs credentials for an identity.
type CredentialIssuer interface {
	Issue(identity domain.Identity) (string, time.Time, error)
}

// CredentialVerifier resolves a presented credential to an identity.
type CredentialVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. A non-positive ttl falls back to 24h.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// ClaimUser is the identity embedded in the token payload.
type ClaimUser struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Claims describes JWT payload.
type Claims struct {
	User ClaimUser `json:"user"`
	jwt.RegisteredClaims
}

// Issue builds and signs a JWT for the identity.
func (tm *TokenManager) Issue(identity domain.Identity) (string, time.Time, error) {
	if identity.UserID == "" || !identity.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: incomplete identity", ErrTokenInvalid)
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		User: ClaimUser{ID: identity.UserID, Role: identity.Role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates the signature and expiry and returns the embedded identity.
func (tm *TokenManager) Verify(tokenStr string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrTokenExpired
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrTokenInvalid
	}
	if claims.User.ID == "" || !claims.User.Role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: missing identity claims", ErrTokenInvalid)
	}
	return domain.Identity{UserID: claims.User.ID, Role: claims.User.Role}, nil
}
