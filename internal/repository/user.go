package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userCols = `id, username, email, role`

// UserRepository is the platform user directory.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ chat.Directory = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(s interface{ Scan(dest ...any) error }, u *model.User) error {
	return s.Scan(&u.ID, &u.Username, &u.Email, &u.Role)
}

// Upsert creates the user or refreshes its name, email and role.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	defer logger.DeferLogDuration("user.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, role) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email, role = EXCLUDED.role`,
		u.ID, u.Username, u.Email, u.Role,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Upsert: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
	defer logger.DeferLogDuration("user.GetUsers", time.Now())()
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetUsers query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("userRepo.GetUsers scan: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRepo.GetUsers rows: %w", err)
	}
	return out, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role model.PlatformRole) ([]model.User, error) {
	defer logger.DeferLogDuration("user.ListByRole", time.Now())()
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY created_at, id`, role)
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListByRole query: %w", err)
	}
	defer rows.Close()
	users := make([]model.User, 0, 8)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("userRepo.ListByRole scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRepo.ListByRole rows: %w", err)
	}
	return users, nil
}
