package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/edukite/catalog-api/internal/models"
	"github.com/edukite/catalog-api/internal/repository"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

// CreateModuleInput captures the module fields of a composite create.
type CreateModuleInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"order,omitempty" validate:"omitempty,gte=1"`
}

// CreateMediaInput captures one media item of a composite create.
type CreateMediaInput struct {
	Caption  string            `json:"caption" validate:"required"`
	Position int               `json:"position" validate:"gte=0"`
	URL      string            `json:"url" validate:"required"`
	Meta     *models.MediaMeta `json:"meta,omitempty"`
}

// CreateContentInput captures the optional content row of a composite create.
type CreateContentInput struct {
	Title           string             `json:"title" validate:"required"`
	Summary         *string            `json:"summary,omitempty"`
	Markdown        *string            `json:"markdown,omitempty"`
	PrimaryMediaURL *string            `json:"primary_media_url,omitempty"`
	CoverImageURL   *string            `json:"cover_image_url,omitempty"`
	SortOrder       *int               `json:"order,omitempty"`
	Tags            []string           `json:"tags,omitempty"`
	Draft           *bool              `json:"draft,omitempty"`
	IsPublished     *bool              `json:"is_published,omitempty"`
	PublishedAt     *time.Time         `json:"published_at,omitempty"`
	EstimatedMins   *int               `json:"estimated_minutes,omitempty"`
	Media           []CreateMediaInput `json:"media,omitempty" validate:"omitempty,dive"`
}

// CreateModuleCompositeRequest is the full composite create payload.
type CreateModuleCompositeRequest struct {
	Module   CreateModuleInput   `json:"module"`
	Contents *CreateContentInput `json:"contents,omitempty"`
}

// MediaPatchInput addresses one existing media row of the subtree.
type MediaPatchInput struct {
	PublicID string `json:"public_id" validate:"required"`
	models.ContentMediaPatch
}

// ContentPatchInput addresses one existing content row of the subtree.
type ContentPatchInput struct {
	PublicID string `json:"public_id" validate:"required"`
	models.ModuleContentPatch
	Media []MediaPatchInput `json:"media,omitempty" validate:"omitempty,dive"`
}

// UpdateModuleCompositeRequest is the composite update payload. Nested
// content and media patches are applied, keyed by public id; a patch naming
// an unknown child fails the whole operation.
type UpdateModuleCompositeRequest struct {
	Module   *models.ModulePatch `json:"module,omitempty"`
	Contents []ContentPatchInput `json:"contents,omitempty" validate:"omitempty,dive"`
}

// ModuleCompositeService presents and mutates the Module → contents → media
// subtree as one logical object. Every mutation runs inside a single
// transaction: the subtree is created, updated, or torn down as one unit.
type ModuleCompositeService struct {
	db        *sqlx.DB
	modules   *repository.ModuleRepository
	contents  *repository.ContentRepository
	media     *repository.MediaRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewModuleCompositeService creates a new composite service. metrics may be
// nil, in which case query timing is not recorded.
func NewModuleCompositeService(db *sqlx.DB, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ModuleCompositeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleCompositeService{
		db:        db,
		modules:   repository.NewModuleRepository(db),
		contents:  repository.NewContentRepository(db),
		media:     repository.NewMediaRepository(db),
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// observe starts a timer for one composite operation. The returned func
// records the elapsed time under the given query label.
func (s *ModuleCompositeService) observe(label string) func() {
	start := time.Now()
	return func() { s.metrics.ObserveDBQuery(label, time.Since(start)) }
}

// List returns a window of modules with page metadata.
func (s *ModuleCompositeService) List(ctx context.Context, p pagination.Params) ([]models.Module, pagination.Meta, error) {
	defer s.observe("module_composite_list")()

	modules, total, err := s.modules.List(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, pagination.NewMeta(total, p), nil
}

// Get assembles the composite for one module: the module row, its content
// rows, and each content's media. One filtered query per level. An existing
// module with no content yields an empty contents list.
func (s *ModuleCompositeService) Get(ctx context.Context, modulePublicID string) (*models.ModuleComposite, error) {
	defer s.observe("module_composite_get")()

	module, err := s.modules.FindByPublicID(ctx, modulePublicID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	if module == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
	}

	return s.assemble(ctx, s.contents, s.media, *module)
}

// Create builds the subtree in one transaction: the module row first so its
// public id is available, then the optional content row stamped with it, then
// each media item stamped with the content's public id. Any failure rolls the
// whole subtree back.
func (s *ModuleCompositeService) Create(ctx context.Context, req CreateModuleCompositeRequest) (*models.ModuleComposite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid composite payload")
	}

	defer s.observe("module_composite_create")()

	composite := &models.ModuleComposite{Contents: []models.CompositeContent{}}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		modules := s.modules.WithTx(tx)
		contents := s.contents.WithTx(tx)
		media := s.media.WithTx(tx)

		module := models.Module{
			Name:        req.Module.Name,
			Description: req.Module.Description,
			SortOrder:   req.Module.SortOrder,
		}
		if err := modules.Create(ctx, &module); err != nil {
			return err
		}
		composite.Module = module

		if req.Contents == nil {
			return nil
		}

		content := models.ModuleContent{
			ModulePublicID:  module.PublicID,
			Title:           req.Contents.Title,
			Summary:         req.Contents.Summary,
			Markdown:        req.Contents.Markdown,
			PrimaryMediaURL: req.Contents.PrimaryMediaURL,
			CoverImageURL:   req.Contents.CoverImageURL,
			SortOrder:       req.Contents.SortOrder,
			Tags:            models.NormalizeTags(req.Contents.Tags),
			Draft:           true,
			PublishedAt:     req.Contents.PublishedAt,
			EstimatedMins:   req.Contents.EstimatedMins,
		}
		if req.Contents.Draft != nil {
			content.Draft = *req.Contents.Draft
		}
		if req.Contents.IsPublished != nil {
			content.IsPublished = *req.Contents.IsPublished
		}
		if err := contents.Create(ctx, &content); err != nil {
			return err
		}

		items := make([]models.ContentMedia, 0, len(req.Contents.Media))
		for _, m := range req.Contents.Media {
			item := models.ContentMedia{
				ContentPublicID: content.PublicID,
				Caption:         m.Caption,
				Position:        m.Position,
				URL:             m.URL,
			}
			if m.Meta != nil {
				item.Meta = *m.Meta
			}
			if err := media.Create(ctx, &item); err != nil {
				return err
			}
			items = append(items, item)
		}

		composite.Contents = append(composite.Contents, models.CompositeContent{
			ModuleContent: content,
			Media:         items,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("module composite created",
		zap.String("public_id", composite.Module.PublicID),
		zap.Int("contents", len(composite.Contents)))
	return composite, nil
}

// Update mutates the subtree in one transaction. The module patch, content
// patches, and media patches are all applied; a patch referencing a child
// outside this module's subtree fails the whole operation and nothing is
// committed. Returns the refreshed composite.
func (s *ModuleCompositeService) Update(ctx context.Context, modulePublicID string, req UpdateModuleCompositeRequest) (*models.ModuleComposite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid composite payload")
	}

	defer s.observe("module_composite_update")()

	var composite *models.ModuleComposite

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		modules := s.modules.WithTx(tx)
		contents := s.contents.WithTx(tx)
		media := s.media.WithTx(tx)

		module, err := modules.FindByPublicID(ctx, modulePublicID, false)
		if err != nil {
			return err
		}
		if module == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}

		if req.Module != nil {
			updated, err := modules.Update(ctx, modulePublicID, *req.Module)
			if err != nil {
				return err
			}
			if updated == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "module not found")
			}
			module = updated
		}

		for _, contentPatch := range req.Contents {
			content, err := contents.FindByPublicID(ctx, contentPatch.PublicID, false)
			if err != nil {
				return err
			}
			if content == nil || content.ModulePublicID != module.PublicID {
				return appErrors.Clone(appErrors.ErrNotFound,
					fmt.Sprintf("content %s not found in module", contentPatch.PublicID))
			}

			patch := contentPatch.ModuleContentPatch
			if patch.Tags != nil {
				normalized := models.NormalizeTags(*patch.Tags)
				patch.Tags = &normalized
			}
			if _, err := contents.Update(ctx, content.PublicID, patch); err != nil {
				return err
			}

			for _, mediaPatch := range contentPatch.Media {
				item, err := media.FindByPublicID(ctx, mediaPatch.PublicID, false)
				if err != nil {
					return err
				}
				if item == nil || item.ContentPublicID != content.PublicID {
					return appErrors.Clone(appErrors.ErrNotFound,
						fmt.Sprintf("media %s not found in content", mediaPatch.PublicID))
				}
				if _, err := media.Update(ctx, item.PublicID, mediaPatch.ContentMediaPatch); err != nil {
					return err
				}
			}
		}

		composite, err = s.assemble(ctx, contents, media, *module)
		return err
	})
	if err != nil {
		return nil, err
	}

	return composite, nil
}

// Delete tears the subtree down for good in one transaction, in fixed order:
// media first, then content rows, then the module row. This is the one place
// hard deletion is used; the cascade removes a whole subtree rather than
// marking a record historical. Returns false when the module does not exist,
// true otherwise regardless of whether it had children.
func (s *ModuleCompositeService) Delete(ctx context.Context, modulePublicID string) (bool, error) {
	defer s.observe("module_composite_delete")()

	deleted := false

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		modules := s.modules.WithTx(tx)
		contents := s.contents.WithTx(tx)
		media := s.media.WithTx(tx)

		module, err := modules.FindByPublicID(ctx, modulePublicID, false)
		if err != nil {
			return err
		}
		if module == nil {
			return nil
		}

		rows, err := contents.ListByModule(ctx, module.PublicID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(rows))
		for _, c := range rows {
			ids = append(ids, c.PublicID)
		}

		if err := media.DeleteByContents(ctx, ids); err != nil {
			return err
		}
		if err := contents.DeleteByModule(ctx, module.PublicID); err != nil {
			return err
		}
		if err := modules.Delete(ctx, module.PublicID); err != nil {
			return err
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.logger.Info("module composite deleted", zap.String("public_id", modulePublicID))
	}
	return deleted, nil
}

// assemble builds the nested structure from one filtered query per level.
func (s *ModuleCompositeService) assemble(ctx context.Context, contents *repository.ContentRepository, media *repository.MediaRepository, module models.Module) (*models.ModuleComposite, error) {
	rows, err := contents.ListByModule(ctx, module.PublicID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module contents")
	}

	ids := make([]string, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.PublicID)
	}
	items, err := media.ListByContents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content media")
	}

	byContent := make(map[string][]models.ContentMedia, len(rows))
	for _, item := range items {
		byContent[item.ContentPublicID] = append(byContent[item.ContentPublicID], item)
	}

	composite := &models.ModuleComposite{
		Module:   module,
		Contents: make([]models.CompositeContent, 0, len(rows)),
	}
	for _, c := range rows {
		mediaItems := byContent[c.PublicID]
		if mediaItems == nil {
			mediaItems = []models.ContentMedia{}
		}
		composite.Contents = append(composite.Contents, models.CompositeContent{
			ModuleContent: c,
			Media:         mediaItems,
		})
	}
	return composite, nil
}

// withTx runs fn inside a transaction with commit-on-success and
// rollback-on-any-failure.
func (s *ModuleCompositeService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
