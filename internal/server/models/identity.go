package models

import "time"

// Identity is a registered principal as stored in the identity store.
type Identity struct {
	ID               string
	UserName         string
	Email            string
	PassHash         string
	RevocationSecret []byte
	CreatedAt        time.Time
}

// Credentials is the composite value replaced by a password change: the new
// credential and the revocation secret that invalidates earlier tokens.
type Credentials struct {
	PassHash         string
	RevocationSecret []byte
}
