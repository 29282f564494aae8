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

type subscriberRepository interface {
	FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Subscriber, error)
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.Subscriber, error)
	List(ctx context.Context, p pagination.Params) ([]models.Subscriber, *int, error)
	Create(ctx context.Context, sub *models.Subscriber) error
	Unsubscribe(ctx context.Context, publicID string) error
	RestoreByEmail(ctx context.Context, email string) (*models.Subscriber, error)
}

// SubscribeRequest captures the newsletter signup payload.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterService handles newsletter subscription workflows.
type NewsletterService struct {
	repo      subscriberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsletterService creates a new newsletter service.
func NewNewsletterService(repo subscriberRepository, validate *validator.Validate, logger *zap.Logger) *NewsletterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsletterService{repo: repo, validator: validate, logger: logger}
}

// List returns a window of subscriptions with page metadata.
func (s *NewsletterService) List(ctx context.Context, p pagination.Params) ([]models.Subscriber, pagination.Meta, error) {
	subs, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, pagination.Meta{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscribers")
	}
	return subs, pagination.NewMeta(total, p), nil
}

// Get returns a subscription by public id.
func (s *NewsletterService) Get(ctx context.Context, publicID string, includeDeleted bool) (*models.Subscriber, error) {
	sub, err := s.repo.FindByPublicID(ctx, publicID, includeDeleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subscriber")
	}
	if sub == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subscriber not found")
	}
	return sub, nil
}

// Subscribe signs an email up. A brand-new email creates a row; an email that
// unsubscribed earlier is restored onto its original row (same public id);
// an email that is already actively subscribed is a conflict.
func (s *NewsletterService) Subscribe(ctx context.Context, req SubscribeRequest) (*models.Subscriber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email address")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	switch {
	case existing == nil:
		sub := &models.Subscriber{Email: email}
		if err := s.repo.Create(ctx, sub); err != nil {
			if appErrors.HasCode(err, appErrors.ErrConflict) {
				return nil, err
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription")
		}
		s.logger.Info("subscriber created", zap.String("public_id", sub.PublicID))
		return sub, nil

	case existing.IsActive && !existing.IsDeleted:
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already subscribed")

	default:
		restored, err := s.repo.RestoreByEmail(ctx, email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore subscription")
		}
		if restored == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "subscription restore yielded no row")
		}
		s.logger.Info("subscriber restored", zap.String("public_id", restored.PublicID))
		return restored, nil
	}
}

// Unsubscribe deactivates a subscription. Unsubscribing an absent or
// already-unsubscribed row is a no-op.
func (s *NewsletterService) Unsubscribe(ctx context.Context, publicID string) error {
	if err := s.repo.Unsubscribe(ctx, publicID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unsubscribe")
	}
	return nil
}
