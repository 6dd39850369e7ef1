package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authwall/internal/client/session"
	"github.com/dmitrijs2005/authwall/internal/common"
)

// Register creates a new account and stores the initial token pair.
func (a *App) Register(ctx context.Context) {

	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	defer common.WipeByteArray(password)

	result, err := a.api.Register(ctx, name, email, string(password), a.fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			fmt.Fprintln(a.out, "An account with this email already exists")
			return
		}
		fmt.Fprintln(a.out, "Registration failed:", err)
		return
	}

	if err := a.saveSession(ctx, result.User.ID, result.AuthToken, result.RefreshToken); err != nil {
		fmt.Fprintln(a.out, "Error saving session:", err)
		return
	}

	fmt.Fprintf(a.out, "Registered as %s. Check your inbox for the confirmation secret.\n", result.User.Email)
}

// Login authenticates and stores the minted token pair.
func (a *App) Login(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	defer common.WipeByteArray(password)

	pair, err := a.api.Login(ctx, email, string(password), a.fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorAccessDenied) {
			fmt.Fprintln(a.out, "Invalid email or password")
			return
		}
		fmt.Fprintln(a.out, "Login failed:", err)
		return
	}

	if err := a.saveSession(ctx, userIDFromToken(pair.AuthToken), pair.AuthToken, pair.RefreshToken); err != nil {
		fmt.Fprintln(a.out, "Error saving session:", err)
		return
	}

	fmt.Fprintln(a.out, "Logged in")
}

// RefreshTokens rotates the stored token pair. A rejected refresh means the
// server revoked the session family, so the local session is dropped too.
func (a *App) RefreshTokens(ctx context.Context) {

	authToken, refreshToken, err := a.loadTokens(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if authToken == "" || refreshToken == "" {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}

	pair, err := a.api.Refresh(ctx, authToken, refreshToken, a.fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorAccessDenied) {
			fmt.Fprintln(a.out, "Session expired, please log in again")
			a.Logout(ctx)
			return
		}
		fmt.Fprintln(a.out, "Refresh failed:", err)
		return
	}

	if err := a.saveSession(ctx, userIDFromToken(pair.AuthToken), pair.AuthToken, pair.RefreshToken); err != nil {
		fmt.Fprintln(a.out, "Error saving session:", err)
		return
	}

	fmt.Fprintln(a.out, "Tokens refreshed")
}

// Confirm submits the emailed confirmation secret for the current user.
func (a *App) Confirm(ctx context.Context) {

	userID, err := a.storedString(ctx, session.KeyUserID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if userID == "" {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}

	secret, err := GetSimpleText(a.reader, "Enter confirmation secret", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	if err := a.api.ConfirmEmail(ctx, userID, secret); err != nil {
		if errors.Is(err, common.ErrorAccessDenied) {
			fmt.Fprintln(a.out, "Wrong confirmation secret")
			return
		}
		fmt.Fprintln(a.out, "Confirmation failed:", err)
		return
	}

	fmt.Fprintln(a.out, "Email confirmed")
}

// Whoami shows the server's view of the current account.
func (a *App) Whoami(ctx context.Context) {

	userID, err := a.storedString(ctx, session.KeyUserID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	if userID == "" {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}

	user, err := a.api.GetUser(ctx, userID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	confirmed := "no"
	if user.EmailConfirmed {
		confirmed = "yes"
	}
	fmt.Fprintf(a.out, "%s <%s> (email confirmed: %s)\n", user.Name, user.Email, confirmed)
}

// Logout drops the local session. The device fingerprint survives so the
// next login reuses the same session slot on the server.
func (a *App) Logout(ctx context.Context) {
	for _, key := range []string{session.KeyAuthToken, session.KeyRefreshToken, session.KeyUserID} {
		if err := a.store.Delete(ctx, key); err != nil {
			fmt.Fprintln(a.out, "Error:", err)
			return
		}
	}
	fmt.Fprintln(a.out, "Logged out")
}

func (a *App) saveSession(ctx context.Context, userID, authToken, refreshToken string) error {
	if err := a.store.Set(ctx, session.KeyAuthToken, []byte(authToken)); err != nil {
		return err
	}
	if err := a.store.Set(ctx, session.KeyRefreshToken, []byte(refreshToken)); err != nil {
		return err
	}
	if userID != "" {
		return a.store.Set(ctx, session.KeyUserID, []byte(userID))
	}
	return nil
}

func (a *App) loadTokens(ctx context.Context) (string, string, error) {
	authToken, err := a.storedString(ctx, session.KeyAuthToken)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := a.storedString(ctx, session.KeyRefreshToken)
	if err != nil {
		return "", "", err
	}
	return authToken, refreshToken, nil
}

func (a *App) storedString(ctx context.Context, key string) (string, error) {
	value, err := a.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// userIDFromToken reads the user id claim out of an auth token without
// verifying the signature. The server is the authority on validity; the
// client only needs the id for lookups.
func userIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if id, ok := claims["uid"].(string); ok {
		return id
	}
	return ""
}
