// Package pagination implements windowed fetching with accurate totals for
// arbitrary entity queries. Base predicates are always carried as bound
// arguments and ordering is held apart from the base query so the total count
// can be computed over the exact same filter set without materializing order.
package pagination

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/edukite/catalog-api/pkg/errors"
)

const (
	// DefaultLimit is applied when the caller does not request a window size.
	DefaultLimit = 50
	// MaxLimit is the hard ceiling for a single window.
	MaxLimit = 200
)

// Params is a validated (limit, offset) window.
type Params struct {
	Limit  int
	Offset int
}

// Bounds lets configuration override the default window sizing.
type Bounds struct {
	DefaultLimit int
	MaxLimit     int
}

func (b Bounds) normalized() Bounds {
	if b.DefaultLimit <= 0 {
		b.DefaultLimit = DefaultLimit
	}
	if b.MaxLimit <= 0 {
		b.MaxLimit = MaxLimit
	}
	return b
}

// ParseParams validates raw limit/offset values at the request boundary.
// Empty strings fall back to defaults; out-of-range values are rejected
// rather than clamped.
func ParseParams(rawLimit, rawOffset string, bounds Bounds) (Params, error) {
	bounds = bounds.normalized()
	p := Params{Limit: bounds.DefaultLimit, Offset: 0}

	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 || limit > bounds.MaxLimit {
			return Params{}, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", bounds.MaxLimit))
		}
		p.Limit = limit
	}

	if rawOffset != "" {
		offset, err := strconv.Atoi(rawOffset)
		if err != nil || offset < 0 {
			return Params{}, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
				"offset must be a non-negative integer")
		}
		p.Offset = offset
	}

	return p, nil
}

// Query is a base SELECT with its ordering held separately. Every predicate
// value must be bound through Args; the SQL text itself never embeds input.
type Query struct {
	SQL     string
	OrderBy string
	Args    []interface{}
}

// Queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	sqlx.QueryerContext
}

type fetchOptions struct {
	count         bool
	totalOverride *int
}

// Option customizes a FetchPage call.
type Option func(*fetchOptions)

// WithoutTotal skips the COUNT(*) query; the returned total is nil.
func WithoutTotal() Option {
	return func(o *fetchOptions) { o.count = false }
}

// WithTotal supplies a pre-known total, skipping the COUNT(*) query.
func WithTotal(total int) Option {
	return func(o *fetchOptions) {
		o.count = false
		o.totalOverride = &total
	}
}

// FetchPage executes the windowed query and, unless opted out, a COUNT(*)
// over the base query with ordering stripped, so the total reflects the same
// predicates as the page.
func FetchPage[T any](ctx context.Context, q Queryer, query Query, p Params, opts ...Option) ([]T, *int, error) {
	options := fetchOptions{count: true}
	for _, opt := range opts {
		opt(&options)
	}

	pageSQL := query.SQL
	if query.OrderBy != "" {
		pageSQL += " ORDER BY " + query.OrderBy
	}
	pageSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(query.Args)+1, len(query.Args)+2)
	pageArgs := make([]interface{}, 0, len(query.Args)+2)
	pageArgs = append(pageArgs, query.Args...)
	pageArgs = append(pageArgs, p.Limit, p.Offset)

	rows := make([]T, 0, p.Limit)
	if err := sqlx.SelectContext(ctx, q, &rows, pageSQL, pageArgs...); err != nil {
		return nil, nil, fmt.Errorf("fetch page: %w", err)
	}

	if options.totalOverride != nil {
		return rows, options.totalOverride, nil
	}
	if !options.count {
		return rows, nil, nil
	}

	countSQL := "SELECT COUNT(*) FROM (" + query.SQL + ") AS page"
	var total int
	if err := sqlx.GetContext(ctx, q, &total, countSQL, query.Args...); err != nil {
		return nil, nil, fmt.Errorf("count page: %w", err)
	}

	return rows, &total, nil
}

// Meta is the page metadata attached to list responses. A nil total means the
// caller opted out of counting; Pages is then nil ("unknown"), never zero.
type Meta struct {
	Total  *int `json:"total"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	Pages  *int `json:"pages"`
}

// NewMeta derives page metadata from a total and the requested window.
func NewMeta(total *int, p Params) Meta {
	meta := Meta{Total: total, Limit: p.Limit, Offset: p.Offset}
	if total != nil && p.Limit > 0 {
		pages := (*total + p.Limit - 1) / p.Limit
		meta.Pages = &pages
	}
	return meta
}
