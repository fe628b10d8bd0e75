package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eduhub/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, r *http.Request) (model.Actor, error) {
	raw := bearerToken(r)
	if raw == "" {
		return model.Actor{}, ErrNoCredentials
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return actor(claims.Subject, claims.Role)
}

// Issue signs a token for userID. Used by tooling and tests; the platform's
// auth service issues production tokens.
func (v *JWTVerifier) Issue(userID string, role model.PlatformRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
