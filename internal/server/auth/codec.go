// Package auth encodes and decodes the signed token pair: a short-lived
// auth token carrying the user id and a long-lived refresh token. Both
// embed the correlation id of the Token row they were issued with, plus a
// type discriminator so one kind can never be replayed as the other.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authwall/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminators embedded in the signed payloads.
const (
	TypeAuth    = "a"
	TypeRefresh = "r"
)

// AuthClaims is the payload of the short-lived auth token.
type AuthClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	TokenID   string `json:"tid"`
	TokenType string `json:"typ"`
}

// RefreshClaims is the payload of the long-lived refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenID   string `json:"tid"`
	TokenType string `json:"typ"`
}

// Codec signs and reads token strings with a symmetric HS256 secret.
// Encoding and decoding are pure and safe for concurrent use.
type Codec struct {
	secret []byte
	logger logging.Logger
}

// NewCodec returns a Codec signing with secret. An empty secret is a
// configuration error and must abort startup.
func NewCodec(secret []byte, logger logging.Logger) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is not defined")
	}
	return &Codec{secret: secret, logger: logger.With("module", "token_codec")}, nil
}

// EncodeAuth produces a signed auth token expiring after lifetime.
func (c *Codec) EncodeAuth(userID, tokenID string, lifetime time.Duration) (string, error) {
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
		UserID:    userID,
		TokenID:   tokenID,
		TokenType: TypeAuth,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// EncodeRefresh produces a signed refresh token expiring after lifetime.
func (c *Codec) EncodeRefresh(tokenID string, lifetime time.Duration) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
		TokenID:   tokenID,
		TokenType: TypeRefresh,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// DecodeAuth reads an auth token. With verify set, signature and expiry are
// enforced; without it only the claim payload is recovered, which is how an
// expired auth token is read during refresh. Failures are logged with the
// offending token string and surfaced as an error, never a panic.
func (c *Codec) DecodeAuth(ctx context.Context, token string, verify bool) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if err := c.decode(ctx, token, claims, verify); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeRefresh reads a refresh token, see DecodeAuth.
func (c *Codec) DecodeRefresh(ctx context.Context, token string, verify bool) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.decode(ctx, token, claims, verify); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) decode(ctx context.Context, token string, claims jwt.Claims, verify bool) error {
	if !verify {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			c.logger.Error(ctx, "failed to read token", "token", token, "error", err)
			return err
		}
		return nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		c.logger.Error(ctx, "failed to verify token", "token", token, "error", err)
		return err
	}
	if !parsed.Valid {
		c.logger.Error(ctx, "token is not valid", "token", token)
		return jwt.ErrTokenUnverifiable
	}
	return nil
}
