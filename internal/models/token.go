package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued at login, returned to the user.
// The refresh token outlives the access token and is used to mint new ones.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
