// This file implements AccountService: registration, login, email
// confirmation, and user lookups.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authwall/internal/common"
	"github.com/dmitrijs2005/authwall/internal/logging"
	"github.com/dmitrijs2005/authwall/internal/server/hashing"
	"github.com/dmitrijs2005/authwall/internal/server/messaging"
	"github.com/dmitrijs2005/authwall/internal/server/models"
	"github.com/dmitrijs2005/authwall/internal/server/mx"
	"github.com/dmitrijs2005/authwall/internal/server/repositories/repomanager"
	"golang.org/x/net/idna"
)

const confirmationSecretSize = 16

// AccountService provides account-related operations:
// - Register: create users after an email-reachability check
// - Login: verify credentials and delegate token minting to TokenService
// - ConfirmEmail: one-shot email confirmation
// - GetUser / GetUsers: lookups by id
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      hashing.Hasher
	tokens      *TokenService
	resolver    mx.Resolver
	publisher   messaging.Publisher
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher hashing.Hasher,
	tokens *TokenService, resolver mx.Resolver, publisher messaging.Publisher, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		resolver:    resolver,
		publisher:   publisher,
		logger:      logger.With("module", "account_service"),
	}
}

// Register creates a new unconfirmed user. The email's domain must publish
// at least one MX record and the normalized email must be unused. On
// success a UserRegistered event is emitted; publish failures are logged
// and do not fail the registration.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.User, error) {

	normalized := NormalizeEmail(email)

	reachable, err := s.emailHostReachable(ctx, normalized)
	if err != nil {
		s.logger.Error(ctx, "mx lookup failed", "email", email, "error", err)
		return nil, common.ErrEmailHostUnreachable
	}
	if !reachable {
		return nil, common.ErrEmailHostUnreachable
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.FindByNormalizedEmail(ctx, normalized); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "user lookup failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	hash, salt, err := s.hasher.HashPassword(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	secret, err := common.MakeRandHexString(confirmationSecretSize)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Name:                    name,
		Email:                   email,
		NormalizedEmail:         normalized,
		PasswordHash:            hash,
		Salt:                    salt,
		EmailConfirmationSecret: secret,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		// A concurrent registration can still hit the unique constraint
		// after the lookup above.
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user insert failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	event := messaging.UserRegistered{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		EmailConfirmed:     user.EmailConfirmed,
		ConfirmationSecret: user.EmailConfirmationSecret,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error(ctx, "failed to publish user registered event", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// Login verifies the password and mints a token pair for the device.
// An unknown email and a wrong password are indistinguishable to the
// caller.
func (s *AccountService) Login(ctx context.Context, email, password, fingerprint, userAgent string) (*TokenPair, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByNormalizedEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorAccessDenied
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !hashing.Verify(s.hasher, password, user.Salt, user.PasswordHash) {
		return nil, common.ErrorAccessDenied
	}

	return s.tokens.Create(ctx, user.ID, fingerprint, userAgent)
}

// ConfirmEmail marks the user's email as confirmed. The operation is
// idempotent: confirming an already-confirmed user succeeds without
// mutation regardless of the supplied secret.
func (s *AccountService) ConfirmEmail(ctx context.Context, userID, secret string) error {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	if user.EmailConfirmed {
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(user.EmailConfirmationSecret), []byte(secret)) != 1 {
		return common.ErrorForbidden
	}

	if err := repo.ConfirmEmail(ctx, userID); err != nil {
		s.logger.Error(ctx, "email confirmation failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	return nil
}

// GetUser returns the user with the given id.
func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetUsers returns the users matching ids. Absence of every id is
// common.ErrorNotFound.
func (s *AccountService) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	users, err := s.repomanager.Users(s.db).GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error getting users: %w", err)
	}
	if len(users) == 0 {
		return nil, common.ErrorNotFound
	}
	return users, nil
}

func (s *AccountService) emailHostReachable(ctx context.Context, email string) (bool, error) {
	_, host, found := strings.Cut(email, "@")
	if !found || host == "" {
		return false, nil
	}
	records, err := s.resolver.QueryMX(ctx, host)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// NormalizeEmail lower-cases the address and punycodes its domain part, so
// internationalized spellings of the same mailbox collapse to one unique key.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		domain = ascii
	}
	return local + "@" + domain
}
