// Package models defines server-side data models persisted in the database.
package models

// User is a registered account. NormalizedEmail is the lower-cased,
// punycoded form of Email and is globally unique.
type User struct {
	ID                      string
	Name                    string
	Email                   string
	NormalizedEmail         string
	PasswordHash            []byte
	Salt                    []byte
	EmailConfirmed          bool
	EmailConfirmationSecret string
}
