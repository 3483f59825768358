package models

import "time"

// LockModel is a lease row backing the named-lock implementation. A lock is
// held while its row exists with an unexpired lease.
type LockModel struct {
	Name      string `gorm:"primaryKey"`
	Owner     string
	ExpiresAt time.Time
}
