package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

const (
	lockLeaseTTL      = 10 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// LeaseLocker implements named locks over a lease table. A lock is acquired
// by inserting its row, or by stealing a row whose lease expired. Release
// deletes the row only when the owner token still matches, so a stolen lease
// is never released by its previous holder.
type LeaseLocker struct {
	DB       *gorm.DB
	newOwner func() string
}

func NewLeaseLocker(db *gorm.DB) (*LeaseLocker, error) {
	generate, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	return &LeaseLocker{DB: db, newOwner: generate}, nil
}

func (l *LeaseLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	owner := l.newOwner()

	for {
		acquired, err := l.tryAcquire(ctx, key, owner)
		if err != nil {
			return err
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	defer l.release(key, owner)

	return fn(ctx)
}

func (l *LeaseLocker) tryAcquire(ctx context.Context, key, owner string) (bool, error) {
	now := time.Now()
	result := l.DB.WithContext(ctx).Exec(
		`INSERT INTO lock_models (name, owner, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE
		 SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at
		 WHERE lock_models.expires_at < ?`,
		key, owner, now.Add(lockLeaseTTL), now,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (l *LeaseLocker) release(key, owner string) {
	err := l.DB.Where("name = ? AND owner = ?", key, owner).
		Delete(&models.LockModel{}).Error
	if err != nil {
		slog.Warn("failed to release lock, lease will expire", "lock", key, "error", err.Error())
	}
}
