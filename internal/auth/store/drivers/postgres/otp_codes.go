package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

type otpCodesRepo struct {
	q querier
}

func (r *otpCodesRepo) SaveOTP(ctx context.Context, rec domain.OTPRecord) (domain.OTPRecord, error) {
	rec.ID = idx.NewAt(rec.CreatedAt)
	_, err := r.q.Exec(ctx,
		`INSERT INTO otp_codes (id, phone, code, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID.String(), rec.Phone, rec.Code, rec.ExpiresAt.UTC(), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.OTPRecord{}, err
	}
	return rec, nil
}

const findValidOTP = `
SELECT id, phone, code, expires_at, created_at
FROM otp_codes
WHERE phone = $1 AND code = $2 AND expires_at > $3
ORDER BY created_at DESC, id DESC
LIMIT 1`

func (r *otpCodesRepo) FindValidOTP(ctx context.Context, phone, code string, now time.Time) (domain.OTPRecord, error) {
	var (
		rec domain.OTPRecord
		id  string
	)
	err := r.q.QueryRow(ctx, findValidOTP, phone, code, now.UTC()).Scan(
		&id, &rec.Phone, &rec.Code, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		return domain.OTPRecord{}, mapNotFound(err)
	}
	rec.ID = idx.ID(id)
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (r *otpCodesRepo) DeleteAllOTPsForPhone(ctx context.Context, phone string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM otp_codes WHERE phone = $1`, phone)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *otpCodesRepo) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM otp_codes WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
