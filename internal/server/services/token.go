// Package services contains server-side business logic. This file
// implements TokenService, the lifecycle engine for the auth/refresh token
// pair: minting pairs on login, rotating them on refresh, and revoking a
// user's whole session family when a presented pair smells stolen.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authwall/internal/common"
	"github.com/dmitrijs2005/authwall/internal/dbx"
	"github.com/dmitrijs2005/authwall/internal/logging"
	"github.com/dmitrijs2005/authwall/internal/server/auth"
	"github.com/dmitrijs2005/authwall/internal/server/config"
	"github.com/dmitrijs2005/authwall/internal/server/models"
	"github.com/dmitrijs2005/authwall/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const defaultMaxTokenCount = 10

// TokenPair bundles a short-lived auth token and a long-lived refresh token.
type TokenPair struct {
	AuthToken    string
	RefreshToken string
}

// TokenService mints and rotates token pairs. All session state lives in
// the tokens repository; the service itself is stateless and safe for
// concurrent use. Every read-check-write sequence runs inside a single
// transaction so two concurrent refreshes of the same pair cannot both
// succeed.
type TokenService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	codec           *auth.Codec
	logger          logging.Logger
	authLifetime    time.Duration
	refreshLifetime time.Duration
	maxTokenCount   int
}

// NewTokenService constructs a TokenService using repositories, the token
// codec, and server config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, logger logging.Logger, cfg *config.Config) *TokenService {
	maxTokenCount := cfg.MaxUserTokenCount
	if maxTokenCount <= 0 {
		maxTokenCount = defaultMaxTokenCount
	}
	return &TokenService{
		db:              db,
		repomanager:     m,
		codec:           codec,
		logger:          logger.With("module", "token_service"),
		authLifetime:    cfg.AuthTokenValidityDuration,
		refreshLifetime: cfg.RefreshTokenValidityDuration,
		maxTokenCount:   maxTokenCount,
	}
}

// Create mints a new token pair for one authenticated device and persists
// the corresponding Token row. A fresh login from a device that already
// holds a session replaces that session; once the user reaches the
// configured session limit the whole set is cleared instead.
func (s *TokenService) Create(ctx context.Context, userID, fingerprint, userAgent string) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.create(ctx, tx, userID, fingerprint, userAgent)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "failed to create token pair", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	return pair, nil
}

// create runs the mint sequence on the given handle, which is expected to
// be an in-flight transaction.
func (s *TokenService) create(ctx context.Context, tx dbx.DBTX, userID, fingerprint, userAgent string) (*TokenPair, error) {
	repo := s.repomanager.Tokens(tx)

	count, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting tokens: %w", err)
	}

	if count >= s.maxTokenCount {
		err = repo.DeleteByUser(ctx, userID)
	} else {
		err = repo.DeleteByUserAndFingerprint(ctx, userID, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("error deleting superseded tokens: %w", err)
	}

	id := uuid.NewString()

	authToken, err := s.codec.EncodeAuth(userID, id, s.authLifetime)
	if err != nil {
		return nil, fmt.Errorf("error encoding auth token: %w", err)
	}
	refreshToken, err := s.codec.EncodeRefresh(id, s.refreshLifetime)
	if err != nil {
		return nil, fmt.Errorf("error encoding refresh token: %w", err)
	}

	token := &models.Token{
		ID:          id,
		UserID:      userID,
		Fingerprint: fingerprint,
		UserAgent:   userAgent,
		ExpiresAt:   time.Now().Add(s.refreshLifetime),
	}
	if err := repo.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("error inserting token: %w", err)
	}

	return &TokenPair{AuthToken: authToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates a token pair. The auth token is read without
// verification because it is expected to be expired at refresh time; the
// refresh token must verify fully. Every refresh token is single-use:
// presenting a retired, mismatched, or forged pair revokes the user's
// whole session family, and only a pair whose stored row still matches the
// request's fingerprint and user agent yields a fresh pair.
func (s *TokenService) Refresh(ctx context.Context, authToken, refreshToken, fingerprint, userAgent string) (*TokenPair, error) {

	authClaims, err := s.codec.DecodeAuth(ctx, authToken, false)
	if err != nil {
		return nil, common.ErrorAccessDenied
	}
	if authClaims.TokenType != auth.TypeAuth {
		s.logger.Error(ctx, "auth token has wrong type id", "type", authClaims.TokenType)
		return nil, common.ErrorAccessDenied
	}

	refreshClaims, err := s.codec.DecodeRefresh(ctx, refreshToken, true)
	if err != nil {
		// The refresh token is expired or tampered with. Recover the
		// correlation id if possible and retire that row so the session
		// cannot be refreshed again.
		id := authClaims.TokenID
		if recovered, readErr := s.codec.DecodeRefresh(ctx, refreshToken, false); readErr == nil {
			id = recovered.TokenID
		}
		if err := s.repomanager.Tokens(s.db).DeleteByID(ctx, id); err != nil {
			s.logger.Error(ctx, "failed to delete token", "token_id", id, "error", err)
			return nil, common.ErrorInternal
		}
		return nil, common.ErrorAccessDenied
	}

	if refreshClaims.TokenType != auth.TypeRefresh {
		s.logger.Error(ctx, "refresh token has wrong type id", "type", refreshClaims.TokenType)
		return nil, common.ErrorAccessDenied
	}

	if authClaims.TokenID != refreshClaims.TokenID {
		// The two tokens were not issued together. Cross-pairing is a
		// strong theft signal, so the whole session family goes.
		s.logger.Error(ctx, "token pair mismatch",
			"auth_token_id", authClaims.TokenID, "refresh_token_id", refreshClaims.TokenID)
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Tokens(tx)
			if err := repo.DeleteByID(ctx, refreshClaims.TokenID); err != nil {
				return err
			}
			return repo.DeleteByUser(ctx, authClaims.UserID)
		})
		if err != nil {
			s.logger.Error(ctx, "failed to revoke tokens", "user_id", authClaims.UserID, "error", err)
			return nil, common.ErrorInternal
		}
		return nil, common.ErrorAccessDenied
	}

	var pair *TokenPair
	revoked := false

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tokens(tx)

		tokens, err := repo.GetByUser(ctx, authClaims.UserID)
		if err != nil {
			return fmt.Errorf("error loading tokens: %w", err)
		}

		var current *models.Token
		for i := range tokens {
			if tokens[i].ID == authClaims.TokenID {
				current = &tokens[i]
				break
			}
		}

		if current == nil || current.Fingerprint != fingerprint || current.UserAgent != userAgent || len(tokens) > s.maxTokenCount {
			// The row is gone (the pair was already rotated), the request
			// comes from a different device, or the user holds too many
			// sessions. Treat the family as compromised.
			if current == nil {
				s.logger.Error(ctx, "token row not found", "token_id", authClaims.TokenID)
			}
			revoked = true
			return repo.DeleteByUser(ctx, authClaims.UserID)
		}

		// Rotation consumes the presented pair.
		if err := repo.DeleteByID(ctx, current.ID); err != nil {
			return fmt.Errorf("error deleting rotated token: %w", err)
		}

		pair, err = s.create(ctx, tx, authClaims.UserID, fingerprint, userAgent)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "failed to refresh token pair", "user_id", authClaims.UserID, "error", err)
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrorAccessDenied
	}

	return pair, nil
}
