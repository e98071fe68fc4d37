package usecase

import (
	"context"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
)

// CatalogUseCase exposes the read-only course catalog.
type CatalogUseCase struct {
	courses repository.CourseRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(courses repository.CourseRepository) *CatalogUseCase {
	return &CatalogUseCase{courses: courses}
}

// List returns every course ordered by id.
func (u *CatalogUseCase) List(ctx context.Context) ([]model.Course, error) {
	return u.courses.List(ctx)
}

// Get returns a single course.
func (u *CatalogUseCase) Get(ctx context.Context, id int64) (*model.Course, error) {
	return u.courses.GetByID(ctx, id)
}
