package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edukite/catalog-api/internal/models"
	appErrors "github.com/edukite/catalog-api/pkg/errors"
	"github.com/edukite/catalog-api/pkg/pagination"
)

const (
	subscriberTable   = "newsletter_subscribers"
	subscriberColumns = "id, public_id, email, is_active, unsubscribed_at, is_deleted, created_at, updated_at"
)

// SubscriberRepository handles persistence for newsletter subscribers.
type SubscriberRepository struct {
	q Querier
}

// NewSubscriberRepository creates a new repository instance.
func NewSubscriberRepository(db *sqlx.DB) *SubscriberRepository {
	return &SubscriberRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *SubscriberRepository) WithTx(tx *sqlx.Tx) *SubscriberRepository {
	return &SubscriberRepository{q: tx}
}

// Get returns a subscriber by internal key.
func (r *SubscriberRepository) Get(ctx context.Context, pk int64) (*models.Subscriber, error) {
	return findByInternalID[models.Subscriber](ctx, r.q, subscriberTable, subscriberColumns, pk)
}

// FindByPublicID returns a subscriber by public id, nil when absent.
func (r *SubscriberRepository) FindByPublicID(ctx context.Context, publicID string, includeDeleted bool) (*models.Subscriber, error) {
	return findByPublicID[models.Subscriber](ctx, r.q, subscriberTable, subscriberColumns, publicID, includeDeleted)
}

// FindByEmail returns a subscriber by normalized email. Unsubscribed rows are
// included when includeDeleted is set, which the re-subscribe flow relies on.
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers WHERE email = $1`
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}

	var sub models.Subscriber
	if err := sqlx.GetContext(ctx, r.q, &sub, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscriber by email: %w", err)
	}
	return &sub, nil
}

// List returns the requested window of active subscriptions plus the total.
func (r *SubscriberRepository) List(ctx context.Context, p pagination.Params) ([]models.Subscriber, *int, error) {
	query := pagination.Query{
		SQL:     `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers WHERE is_deleted = FALSE`,
		OrderBy: "created_at DESC, id DESC",
	}
	return pagination.FetchPage[models.Subscriber](ctx, r.q, query, p)
}

// Count returns the number of non-deleted subscribers.
func (r *SubscriberRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.q, subscriberTable)
}

// Create persists a new subscription row.
func (r *SubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	if sub.PublicID == "" {
		sub.PublicID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	sub.IsActive = true
	sub.IsDeleted = false

	const query = `INSERT INTO newsletter_subscribers (public_id, email, is_active, unsubscribed_at, is_deleted, created_at, updated_at)
VALUES ($1, $2, TRUE, NULL, FALSE, $3, $4) RETURNING id`
	err := sqlx.GetContext(ctx, r.q, &sub.ID, query, sub.PublicID, sub.Email, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "email already subscribed")
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

// Unsubscribe flags the row inactive and deleted and stamps the time.
// Unsubscribing an absent or already-unsubscribed row is a no-op.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, publicID string) error {
	const query = `UPDATE newsletter_subscribers
SET is_active = FALSE, is_deleted = TRUE, unsubscribed_at = $2, updated_at = $2
WHERE public_id = $1 AND is_deleted = FALSE`
	if _, err := r.q.ExecContext(ctx, query, publicID, time.Now().UTC()); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// RestoreByEmail reactivates an unsubscribed row, clearing the stamp. The
// original row (and its public id) is reused; email uniqueness holds for the
// row's whole lifetime.
func (r *SubscriberRepository) RestoreByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const query = `UPDATE newsletter_subscribers
SET is_active = TRUE, is_deleted = FALSE, unsubscribed_at = NULL, updated_at = $2
WHERE email = $1`
	if _, err := r.q.ExecContext(ctx, query, email, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("restore subscriber: %w", err)
	}
	return r.FindByEmail(ctx, email, false)
}
