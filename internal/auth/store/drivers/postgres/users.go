package postgres

import (
	"context"

	"github.com/aussiebroadwan/streamnest/internal/auth/domain"
	"github.com/aussiebroadwan/streamnest/pkg/idx"
)

type usersRepo struct {
	q querier
}

func (r *usersRepo) ExistsByEmailOrUserID(ctx context.Context, email, userID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR user_id = $2)`,
		email, userID,
	).Scan(&exists)
	return exists, err
}

const getUserByLoginIdentifier = `
SELECT id, user_id, username, email, password_hash, phone, created_at
FROM users
WHERE user_id = $1 OR email = $1
ORDER BY (user_id = $1) DESC
LIMIT 1`

func (r *usersRepo) GetUserByLoginIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	var (
		u  domain.User
		id string
	)
	err := r.q.QueryRow(ctx, getUserByLoginIdentifier, identifier).Scan(
		&id, &u.UserID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.ID = idx.ID(id)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

const createUser = `
INSERT INTO users (id, user_id, username, email, password_hash, phone, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.ID = idx.NewAt(u.CreatedAt)
	_, err := r.q.Exec(ctx, createUser,
		u.ID.String(), u.UserID, u.Username, u.Email, u.PasswordHash, u.Phone, u.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.User{}, mapUniqueViolation(err)
	}
	return u, nil
}
