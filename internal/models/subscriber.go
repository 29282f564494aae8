package models

import "time"

// Subscriber represents a newsletter subscription. Email uniqueness is
// permanent across the row's lifetime: re-subscribing an inactive email
// restores the original row instead of creating a second one.
type Subscriber struct {
	ID             int64      `db:"id" json:"-"`
	PublicID       string     `db:"public_id" json:"public_id"`
	Email          string     `db:"email" json:"email"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty"`
	IsDeleted      bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
