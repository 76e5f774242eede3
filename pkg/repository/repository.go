package repository

import (
	"context"

	"github.com/physai/textbook-backend/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type AccountRepo interface {
	CreateAccountWithProfile(ctx context.Context, a *models.Account, p *models.Profile) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	TouchLastLogin(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type ProfileRepo interface {
	GetByAccountID(ctx context.Context, accountID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

type SessionRepo interface {
	CreateSession(ctx context.Context, s *models.Session) (int64, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	// ReplaceSession atomically deletes the row holding oldHash and inserts
	// the replacement. It reports whether the old row was actually consumed;
	// concurrent callers presenting the same hash see at most one true.
	ReplaceSession(ctx context.Context, oldHash string, next *models.Session) (bool, error)
	DeleteByTokenHash(ctx context.Context, accountID int64, tokenHash string) error
	DeleteByAccountID(ctx context.Context, accountID int64) error
	CountByAccountID(ctx context.Context, accountID int64) (int64, error)
	DeleteOldestByAccountID(ctx context.Context, accountID int64, keep int64) error
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

type QueryRecordRepo interface {
	CreateQueryRecord(ctx context.Context, qr *models.QueryRecord) (int64, error)
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.QueryRecord, error)
}
