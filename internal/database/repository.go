package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// PhotoStore provides access to photo records.
type PhotoStore interface {
	// CreatePhoto inserts a photo and fills in its assigned ID.
	CreatePhoto(ctx context.Context, p *Photo) error
	// GetPhoto retrieves a photo by ID, ErrNotFound if absent.
	GetPhoto(ctx context.Context, id int64) (*Photo, error)
	// ListPhotos returns the photos of one profile, or every photo when
	// profileID is 0, ordered by upload time ascending.
	ListPhotos(ctx context.Context, profileID int64) ([]Photo, error)
	// SetFingerprint writes the image_hash column directly. This is the only
	// fingerprint persistence path and it performs a plain column update, so
	// it can never re-trigger ingest processing.
	SetFingerprint(ctx context.Context, id int64, hash string) error
	// DeletePhotos removes the given photos in a single transaction:
	// either all of them are deleted or none.
	DeletePhotos(ctx context.Context, ids []int64) error
}

// NotificationStore provides access to admins and their notifications.
type NotificationStore interface {
	// Admins returns the active notification recipients.
	Admins(ctx context.Context) ([]Admin, error)
	// NotifiedRecipients returns the recipient IDs already notified about a
	// photo, used to de-duplicate repeated pipeline runs.
	NotifiedRecipients(ctx context.Context, photoID int64) ([]int64, error)
	// CreateNotifications inserts the given notifications in one batch.
	CreateNotifications(ctx context.Context, notes []Notification) error
}

// Store is a full persistence backend.
type Store interface {
	PhotoStore
	NotificationStore

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error
	Close() error
}
