package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseRepository resolves course references for chats and message context links.
type CourseRepository struct {
	pool *pgxpool.Pool
}

var _ chat.Catalog = (*CourseRepository)(nil)

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func (r *CourseRepository) Upsert(ctx context.Context, c *model.Course) error {
	defer logger.DeferLogDuration("course.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO courses (id, title) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title`,
		c.ID, c.Title,
	)
	if err != nil {
		return fmt.Errorf("courseRepo.Upsert: %w", err)
	}
	return nil
}

func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	defer logger.DeferLogDuration("course.Get", time.Now())()
	c := &model.Course{}
	err := r.pool.QueryRow(ctx, `SELECT id, title FROM courses WHERE id = $1`, id).Scan(&c.ID, &c.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("courseRepo.Get: %w", err)
	}
	return c, nil
}
