package models

import "time"

// Token is one refresh session. Its ID is the correlation id embedded in
// both signed tokens of the pair issued together with this row.
type Token struct {
	ID          string
	UserID      string
	Fingerprint string
	UserAgent   string
	ExpiresAt   time.Time
}
