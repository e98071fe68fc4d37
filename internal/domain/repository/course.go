package repository

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// CourseRepository gives read access to the course catalog.
type CourseRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
}
