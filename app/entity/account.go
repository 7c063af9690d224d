package entity

import (
	"database/sql"
	"time"
)

type Account struct {
	ID                uint64
	Email             string
	PasswordHash      string
	IsVerified        bool
	VerificationToken sql.NullString
	ResetToken        sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
