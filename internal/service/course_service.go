package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukite/catalog-api/internal/models"
	"github.com/edukite/catalog-api/internal/repository"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

type courseRepository interface {
	FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Course, error)
	List(ctx context.Context, filter repository.CourseFilter, p pagination.Params) ([]models.Course, *int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, publicID string, patch models.CoursePatch) (*models.Course, error)
	SoftDelete(ctx context.Context, publicID string) error
}

type trackLookup interface {
	FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Track, error)
}

// CreateCourseRequest captures fields for creating courses.
type CreateCourseRequest struct {
	TrackPublicID string  `json:"track_public_id" validate:"required,uuid4"`
	Title         string  `json:"title" validate:"required"`
	Description   *string `json:"description,omitempty"`
	SortOrder     *int    `json:"order,omitempty" validate:"omitempty,gte=1"`
	Theme         *string `json:"theme,omitempty"`
}

// CourseService handles course domain workflows.
type CourseService struct {
	repo      courseRepository
	tracks    trackLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, tracks trackLookup, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, tracks: tracks, validator: validate, logger: logger}
}

// List returns a window of courses, optionally restricted to a track.
func (s *CourseService) List(ctx context.Context, trackPublicID string, p pagination.Params) ([]models.Course, pagination.Meta, error) {
	courses, total, err := s.repo.List(ctx, repository.CourseFilter{TrackPublicID: trackPublicID}, p)
	if err != nil {
		return nil, pagination.Meta{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, pagination.NewMeta(total, p), nil
}

// Get returns a course by public id.
func (s *CourseService) Get(ctx context.Context, publicID string, includeDeleted bool) (*models.Course, error) {
	course, err := s.repo.FindByPublicID(ctx, publicID, includeDeleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// Create adds a course under an existing track. The track reference is
// validated before the write; a dangling reference never reaches the store.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	track, err := s.tracks.FindByPublicID(ctx, req.TrackPublicID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check track")
	}
	if track == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "track does not exist")
	}

	title := normalizeName(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course title must not be blank")
	}
	theme := req.Theme
	if theme != nil {
		normalized := normalizeName(*theme)
		theme = &normalized
	}

	course := &models.Course{
		TrackPublicID: track.PublicID,
		Title:         title,
		Description:   req.Description,
		SortOrder:     req.SortOrder,
		Theme:         theme,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created", zap.String("public_id", course.PublicID), zap.String("track", course.TrackPublicID))
	return course, nil
}

// Update applies a partial update and returns the refreshed row.
func (s *CourseService) Update(ctx context.Context, publicID string, patch models.CoursePatch) (*models.Course, error) {
	if patch.Title != nil {
		title := normalizeName(*patch.Title)
		if title == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course title must not be blank")
		}
		patch.Title = &title
	}
	if patch.Theme != nil {
		theme := normalizeName(*patch.Theme)
		patch.Theme = &theme
	}

	course, err := s.repo.Update(ctx, publicID, patch)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// Delete soft-deletes a course. Absent and already-deleted courses are a no-op.
func (s *CourseService) Delete(ctx context.Context, publicID string) error {
	if err := s.repo.SoftDelete(ctx, publicID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
