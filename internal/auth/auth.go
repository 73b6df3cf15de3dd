package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marcelsud/bookshelf-api/internal/user"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const minSecretLength = 32

// Authenticator resolves a bearer token to the user it was issued for
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 tokens
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) (*JWT, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &JWT{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// IssueToken signs a token whose subject is the user id
func (j *JWT) IssueToken(u user.User) (string, error) {
	if u.ID == "" {
		return "", errors.New("user id is required")
	}
	now := j.now()
	c := claims{
		Name: u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (j *JWT) Authenticate(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{},
		func(t *jwt.Token) (interface{}, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return user.User{}, ErrExpiredToken
		}
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return user.User{}, ErrInvalidToken
	}
	return user.User{ID: c.Subject, Name: c.Name}, nil
}
