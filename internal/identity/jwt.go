// Package identity verifies caller credentials for the relay. Tokens are HS256
// JWTs whose subject is the decimal user id.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type Config struct {
	Secret string `mapstructure:"jwt_secret"`
	Issuer string `mapstructure:"issuer"`
}

type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret []byte
	issuer string
}

var _ core.Identity = (*JWTVerifier)(nil)

func NewJWTVerifier(cfg Config) (*JWTVerifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("identity: empty jwt secret")
	}
	return &JWTVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}, nil
}

// Verify accepts a raw token or an "Authorization: Bearer" header value.
func (v *JWTVerifier) Verify(credential string) (domain.UserID, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if raw == "" {
		return 0, fmt.Errorf("missing credential: %w", domain.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
		}
		return 0, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return 0, fmt.Errorf("invalid claims: %w", domain.ErrUnauthorized)
	}
	return domain.ParseUserID(claims.Subject)
}

// Issue signs a token for uid. Used by the token command and tests; end-user
// token issuance lives outside the relay.
func (v *JWTVerifier) Issue(uid domain.UserID, username string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   uid.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
