package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// UserStore persists accounts in the users table.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if _, err := s.GetUserByEmail(ctx, user.Email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		user.Name, user.Email, user.PasswordHash, string(user.Role)).Scan(&id)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.ID = strconv.FormatInt(id, 10)
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var (
		id   int64
		user domain.User
		role string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role FROM users WHERE email=$1`,
		email).Scan(&id, &user.Name, &user.Email, &user.PasswordHash, &role)
	if err == pgx.ErrNoRows {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	user.ID = strconv.FormatInt(id, 10)
	user.Role = domain.Role(role)
	return user, nil
}
