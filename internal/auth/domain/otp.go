package domain

import (
	"time"

	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

// OTPRecord is one issued one-time passcode. Several live records may exist
// for the same phone; consuming any of them deletes them all.
type OTPRecord struct {
	ID        idx.ID
	Phone     string
	Code      string // 6 digits, kept as text
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UsableAt reports whether the record can still be redeemed at now.
func (r OTPRecord) UsableAt(now time.Time) bool {
	return r.ExpiresAt.After(now)
}
