package sqlite

import (
	"context"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

type usersRepo struct {
	q querier
}

const existsByEmailOrUserID = `
SELECT EXISTS (SELECT 1 FROM users WHERE email = ? OR user_id = ?)`

func (r *usersRepo) ExistsByEmailOrUserID(ctx context.Context, email, userID string) (bool, error) {
	var exists bool
	if err := r.q.QueryRowContext(ctx, existsByEmailOrUserID, email, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

const getUserByLoginIdentifier = `
SELECT id, user_id, username, email, password_hash, phone, created_at
FROM users
WHERE user_id = ?1 OR email = ?1
ORDER BY CASE WHEN user_id = ?1 THEN 0 ELSE 1 END
LIMIT 1`

func (r *usersRepo) GetUserByLoginIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	var (
		u         domain.User
		id        string
		createdAt int64
	)
	err := r.q.QueryRowContext(ctx, getUserByLoginIdentifier, identifier).Scan(
		&id, &u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &createdAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.ID = idx.ID(id)
	u.CreatedAt = fromUnix(createdAt)
	return u, nil
}

const createUser = `
INSERT INTO users (id, user_id, username, email, password_hash, phone, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.ID = idx.NewAt(u.CreatedAt)
	_, err := r.q.ExecContext(ctx, createUser,
		u.ID.String(), u.UserID, u.Username, u.Email, u.PasswordHash, u.Phone, toUnix(u.CreatedAt),
	)
	if err != nil {
		return domain.User{}, mapUniqueViolation(err)
	}
	return u, nil
}
