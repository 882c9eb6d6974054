package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so a Tx can
// hand out the same repos bound to the transaction.
type Store interface {
	Users() Users
	OTPCodes() OTPCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// ExistsByEmailOrUserID reports whether any user has this email or this user_id.
	ExistsByEmailOrUserID(ctx context.Context, email, userID string) (bool, error)

	// GetUserByLoginIdentifier matches the identifier against user_id or email.
	// A user_id match is preferred when the identifier hits two different rows.
	GetUserByLoginIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts u, assigning its ID. Returns ErrAlreadyExists when the
	// email or user_id unique constraint rejects the row.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
}

type OTPCodes interface {
	// SaveOTP appends a record, assigning its ID. Never rejects a repeated phone.
	SaveOTP(ctx context.Context, rec domain.OTPRecord) (domain.OTPRecord, error)

	// FindValidOTP returns the newest record for phone+code with expires_at > now,
	// ordered by created_at then id descending. ErrNotFound if there is none.
	FindValidOTP(ctx context.Context, phone, code string, now time.Time) (domain.OTPRecord, error)

	// DeleteAllOTPsForPhone removes every record for phone and returns how many went.
	DeleteAllOTPsForPhone(ctx context.Context, phone string) (int64, error)

	// DeleteExpiredOTPs is housekeeping for records that can no longer be redeemed.
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}
