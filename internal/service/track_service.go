package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

type trackRepository interface {
	FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Track, error)
	FindByName(ctx context.Context, name string) (*models.Track, error)
	List(ctx context.Context, p pagination.Params) ([]models.Track, *int, error)
	Create(ctx context.Context, track *models.Track) error
	Update(ctx context.Context, publicID string, patch models.TrackPatch) (*models.Track, error)
	SoftDelete(ctx context.Context, publicID string) error
	Restore(ctx context.Context, publicID string) error
}

// CreateTrackRequest captures fields for creating tracks.
type CreateTrackRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}

// TrackService handles track domain workflows.
type TrackService struct {
	repo      trackRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrackService creates a new track service.
func NewTrackService(repo trackRepository, validate *validator.Validate, logger *zap.Logger) *TrackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackService{repo: repo, validator: validate, logger: logger}
}

// List returns a window of tracks with page metadata.
func (s *TrackService) List(ctx context.Context, p pagination.Params) ([]models.Track, pagination.Meta, error) {
	tracks, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tracks")
	}
	return tracks, pagination.NewMeta(total, p), nil
}

// Get returns a track by public id.
func (s *TrackService) Get(ctx context.Context, publicID string, includeDeleted bool) (*models.Track, error) {
	track, err := s.repo.FindByPublicID(ctx, publicID, includeDeleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load track")
	}
	if track == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "track not found")
	}
	return track, nil
}

// Create adds a new track. Names are normalized lower-case and checked for
// duplicates before hitting the unique constraint, so callers get a friendly
// message; the store remains the final enforcement point.
func (s *TrackService) Create(ctx context.Context, req CreateTrackRequest) (*models.Track, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid track payload")
	}

	name := normalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "track name must not be blank")
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check track name")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "track name already exists")
	}

	track := &models.Track{
		Name:        name,
		Description: req.Description,
		Theme:       req.Theme,
	}
	if err := s.repo.Create(ctx, track); err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create track")
	}

	s.logger.Info("track created", zap.String("public_id", track.PublicID), zap.String("name", track.Name))
	return track, nil
}

// Update applies a partial update and returns the refreshed row.
func (s *TrackService) Update(ctx context.Context, publicID string, patch models.TrackPatch) (*models.Track, error) {
	if patch.Name != nil {
		name := normalizeName(*patch.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "track name must not be blank")
		}
		patch.Name = &name
	}

	track, err := s.repo.Update(ctx, publicID, patch)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update track")
	}
	if track == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "track not found")
	}
	return track, nil
}

// Delete soft-deletes a track. Absent and already-deleted tracks are a no-op.
func (s *TrackService) Delete(ctx context.Context, publicID string) error {
	if err := s.repo.SoftDelete(ctx, publicID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete track")
	}
	return nil
}

// Restore clears a track's soft-delete flag and returns the refreshed row.
func (s *TrackService) Restore(ctx context.Context, publicID string) (*models.Track, error) {
	if err := s.repo.Restore(ctx, publicID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore track")
	}

	track, err := s.repo.FindByPublicID(ctx, publicID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load track")
	}
	if track == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "track not found")
	}
	return track, nil
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
