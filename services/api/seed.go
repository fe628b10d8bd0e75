package main

import (
	"context"
	"fmt"

	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/repository"
)

// Демо-данные для -dev и -memory.
var devUsers = []model.User{
	{ID: "student-1", Username: "anna", Email: "anna@example.com", Role: model.RoleStudent},
	{ID: "student-2", Username: "boris", Email: "boris@example.com", Role: model.RoleStudent},
	{ID: "instructor-1", Username: "irina", Email: "irina@example.com", Role: model.RoleInstructor},
	{ID: "admin-1", Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin},
}

var devCourses = []model.Course{
	{ID: "go-101", Title: "Go: основы"},
	{ID: "sql-201", Title: "PostgreSQL для разработчиков"},
}

func seedPostgres(ctx context.Context, users *repository.UserRepository, courses *repository.CourseRepository) error {
	for i := range devUsers {
		if err := users.Upsert(ctx, &devUsers[i]); err != nil {
			return fmt.Errorf("user %s: %w", devUsers[i].ID, err)
		}
	}
	for i := range devCourses {
		if err := courses.Upsert(ctx, &devCourses[i]); err != nil {
			return fmt.Errorf("course %s: %w", devCourses[i].ID, err)
		}
	}
	return nil
}
