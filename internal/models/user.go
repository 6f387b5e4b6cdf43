package models

import (
	"time"
)

type User struct {
	ID             int64
	Email          string
	Username       string
	HashedPassword string
	FullName       *string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time // nil until first update
}
