package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

type otpCodesRepo struct {
	q querier
}

const saveOTP = `
INSERT INTO otp_codes (id, phone, code, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)`

func (r *otpCodesRepo) SaveOTP(ctx context.Context, rec domain.OTPRecord) (domain.OTPRecord, error) {
	rec.ID = idx.NewAt(rec.CreatedAt)
	_, err := r.q.ExecContext(ctx, saveOTP,
		rec.ID.String(), rec.Phone, rec.Code, toUnix(rec.ExpiresAt), toUnix(rec.CreatedAt),
	)
	if err != nil {
		return domain.OTPRecord{}, err
	}
	return rec, nil
}

const findValidOTP = `
SELECT id, phone, code, expires_at, created_at
FROM otp_codes
WHERE phone = ? AND code = ? AND expires_at > ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

func (r *otpCodesRepo) FindValidOTP(ctx context.Context, phone, code string, now time.Time) (domain.OTPRecord, error) {
	var (
		rec                  domain.OTPRecord
		id                   string
		expiresAt, createdAt int64
	)
	err := r.q.QueryRowContext(ctx, findValidOTP, phone, code, toUnix(now)).Scan(
		&id, &rec.Phone, &rec.Code, &expiresAt, &createdAt,
	)
	if err != nil {
		return domain.OTPRecord{}, mapNotFound(err)
	}
	rec.ID = idx.ID(id)
	rec.ExpiresAt = fromUnix(expiresAt)
	rec.CreatedAt = fromUnix(createdAt)
	return rec, nil
}

func (r *otpCodesRepo) DeleteAllOTPsForPhone(ctx context.Context, phone string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = ?`, phone)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *otpCodesRepo) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
