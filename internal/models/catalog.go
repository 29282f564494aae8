package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Track represents a learning program (e.g. frontend, backend, data science).
type Track struct {
	ID          int64     `db:"id" json:"-"`
	PublicID    string    `db:"public_id" json:"public_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Theme       *string   `db:"theme" json:"theme,omitempty"`
	IsDeleted   bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TrackPatch lists the mutable Track fields; nil fields are left untouched.
type TrackPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}

// Course represents a class inside a track.
type Course struct {
	ID            int64     `db:"id" json:"-"`
	PublicID      string    `db:"public_id" json:"public_id"`
	TrackPublicID string    `db:"track_public_id" json:"track_public_id"`
	Title         string    `db:"title" json:"title"`
	Description   *string   `db:"description" json:"description,omitempty"`
	SortOrder     *int      `db:"sort_order" json:"order,omitempty"`
	Theme         *string   `db:"theme" json:"theme,omitempty"`
	IsDeleted     bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CoursePatch lists the mutable Course fields.
type CoursePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"order,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}

// Module represents a chapter of learning material owning ordered content.
type Module struct {
	ID          int64     `db:"id" json:"-"`
	PublicID    string    `db:"public_id" json:"public_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	SortOrder   *int      `db:"sort_order" json:"order,omitempty"`
	IsDeleted   bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ModulePatch lists the mutable Module fields.
type ModulePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"order,omitempty"`
}

// ModuleContent is a lecture note / article written in markdown.
type ModuleContent struct {
	ID              int64      `db:"id" json:"-"`
	PublicID        string     `db:"public_id" json:"public_id"`
	ModulePublicID  string     `db:"module_public_id" json:"module_public_id"`
	Title           string     `db:"title" json:"title"`
	Summary         *string    `db:"summary" json:"summary,omitempty"`
	Markdown        *string    `db:"markdown" json:"markdown,omitempty"`
	PrimaryMediaURL *string    `db:"primary_media_url" json:"primary_media_url,omitempty"`
	CoverImageURL   *string    `db:"cover_image_url" json:"cover_image_url,omitempty"`
	SortOrder       *int       `db:"sort_order" json:"order,omitempty"`
	Tags            Tags       `db:"tags" json:"tags,omitempty"`
	Draft           bool       `db:"draft" json:"draft"`
	IsPublished     bool       `db:"is_published" json:"is_published"`
	PublishedAt     *time.Time `db:"published_at" json:"published_at,omitempty"`
	EstimatedMins   *int       `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	IsDeleted       bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ModuleContentPatch lists the mutable ModuleContent fields.
type ModuleContentPatch struct {
	Title           *string    `json:"title,omitempty"`
	Summary         *string    `json:"summary,omitempty"`
	Markdown        *string    `json:"markdown,omitempty"`
	PrimaryMediaURL *string    `json:"primary_media_url,omitempty"`
	CoverImageURL   *string    `json:"cover_image_url,omitempty"`
	SortOrder       *int       `json:"order,omitempty"`
	Tags            *Tags      `json:"tags,omitempty"`
	Draft           *bool      `json:"draft,omitempty"`
	IsPublished     *bool      `json:"is_published,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	EstimatedMins   *int       `json:"estimated_minutes,omitempty"`
}

// ContentMedia is an asset (video, slide, image) attached to module content.
// The external attribute "caption" is stored in the legacy column "name";
// that split is a serialization concern only and must not leak to callers.
type ContentMedia struct {
	ID              int64     `db:"id" json:"-"`
	PublicID        string    `db:"public_id" json:"public_id"`
	ContentPublicID string    `db:"module_content_public_id" json:"module_content_public_id"`
	Caption         string    `db:"name" json:"caption"`
	Position        int       `db:"position" json:"position"`
	URL             string    `db:"url" json:"url"`
	Meta            MediaMeta `db:"meta" json:"meta"`
	IsDeleted       bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ContentMediaPatch lists the mutable ContentMedia fields.
type ContentMediaPatch struct {
	Caption  *string    `json:"caption,omitempty"`
	Position *int       `json:"position,omitempty"`
	URL      *string    `json:"url,omitempty"`
	Meta     *MediaMeta `json:"meta,omitempty"`
}

// ModuleComposite is the assembled Module → contents → media subtree.
type ModuleComposite struct {
	Module   Module             `json:"module"`
	Contents []CompositeContent `json:"contents"`
}

// CompositeContent is a content row together with its media items.
type CompositeContent struct {
	ModuleContent
	Media []ContentMedia `json:"media"`
}

// MediaMeta describes a stored media asset, persisted as JSONB.
type MediaMeta struct {
	Ext        *string        `json:"ext,omitempty"`
	Size       *int64         `json:"size,omitempty"`
	MediaType  *string        `json:"media_type,omitempty"`
	Dimensions map[string]int `json:"dimensions,omitempty"`
}

// Value marshals media metadata to JSON for persistence.
func (m MediaMeta) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal media meta: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the metadata struct.
func (m *MediaMeta) Scan(value interface{}) error {
	if value == nil {
		*m = MediaMeta{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MediaMeta", value)
	}
	if len(data) == 0 {
		*m = MediaMeta{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal media meta: %w", err)
	}
	return nil
}

// Tags is a list of content tags persisted as JSONB.
type Tags []string

// Value marshals tags to JSON for persistence.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		t = Tags{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the tag list.
func (t *Tags) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Tags", value)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	if err := json.Unmarshal(data, t); err != nil {
		return fmt.Errorf("unmarshal tags: %w", err)
	}
	return nil
}

// NormalizeTags trims, case-folds, and deduplicates tags preserving the order
// of first occurrence.
func NormalizeTags(raw []string) Tags {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make(Tags, 0, len(raw))
	for _, tag := range raw {
		norm := strings.ToLower(strings.TrimSpace(tag))
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
