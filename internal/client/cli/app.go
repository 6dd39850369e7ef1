// Package cli implements the interactive authwall client: account
// registration, login, token rotation and email confirmation against a
// running server, with the session persisted locally between runs.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authwall/internal/client/api"
	"github.com/dmitrijs2005/authwall/internal/client/config"
	"github.com/dmitrijs2005/authwall/internal/client/session"
	"github.com/dmitrijs2005/authwall/internal/common"
)

// fingerprintSize is the number of random bytes in a generated device
// fingerprint; the hex encoding doubles it.
const fingerprintSize = 32

// apiClient is the server surface the CLI uses.
type apiClient interface {
	Register(ctx context.Context, name, email, password, fingerprint string) (*api.RegisterResult, error)
	Login(ctx context.Context, email, password, fingerprint string) (*api.TokenPair, error)
	Refresh(ctx context.Context, authToken, refreshToken, fingerprint string) (*api.TokenPair, error)
	ConfirmEmail(ctx context.Context, userID, secret string) error
	GetUser(ctx context.Context, id string) (*api.User, error)
}

type App struct {
	config      *config.Config
	api         apiClient
	store       session.Repository
	db          *sql.DB
	fingerprint string
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := session.InitDatabase(ctx, c.SessionDBFileName)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	app := &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr, c.RequestTimeout),
		store:  session.NewSQLiteRepository(db),
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if err := app.ensureFingerprint(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return app, nil
}

// ensureFingerprint loads the stored device fingerprint, generating and
// persisting one on first run. The server pins every session to it.
func (a *App) ensureFingerprint(ctx context.Context) error {
	value, err := a.store.Get(ctx, session.KeyFingerprint)
	if err != nil {
		return err
	}
	if value != nil {
		a.fingerprint = string(value)
		return nil
	}

	fingerprint, err := common.MakeRandHexString(fingerprintSize)
	if err != nil {
		return fmt.Errorf("error generating fingerprint: %w", err)
	}
	if err := a.store.Set(ctx, session.KeyFingerprint, []byte(fingerprint)); err != nil {
		return err
	}

	a.fingerprint = fingerprint
	return nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	value, err := a.store.Get(ctx, session.KeyAuthToken)
	return err == nil && value != nil
}
