// Package mock provides an in-memory implementation of the database
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ebudnikov/dateguard/internal/database"
)

// Store is an in-memory database.Store with per-method error injection.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	photos        map[int64]database.Photo
	admins        []database.Admin
	notifications []database.Notification

	// Error injection
	GetPhotoError            error
	ListPhotosError          error
	SetFingerprintError      error
	DeletePhotosError        error
	AdminsError              error
	CreateNotificationsError error
}

var _ database.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		photos: make(map[int64]database.Photo),
	}
}

// AddAdmin registers a notification recipient.
func (m *Store) AddAdmin(a database.Admin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins = append(m.admins, a)
}

// Notifications returns a copy of every stored notification.
func (m *Store) Notifications() []database.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// Migrate is a no-op for the in-memory store.
func (m *Store) Migrate(context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *Store) Close() error { return nil }

// CreatePhoto inserts a photo and assigns it an ID.
func (m *Store) CreatePhoto(_ context.Context, p *database.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	p.ID = m.nextID
	m.nextID++
	m.photos[p.ID] = *p
	return nil
}

// GetPhoto retrieves a photo by ID.
func (m *Store) GetPhoto(_ context.Context, id int64) (*database.Photo, error) {
	if m.GetPhotoError != nil {
		return nil, m.GetPhotoError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

// ListPhotos returns photos of one profile (0 for all), oldest first.
func (m *Store) ListPhotos(_ context.Context, profileID int64) ([]database.Photo, error) {
	if m.ListPhotosError != nil {
		return nil, m.ListPhotosError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var photos []database.Photo
	for _, p := range m.photos {
		if profileID == 0 || p.ProfileID == profileID {
			photos = append(photos, p)
		}
	}
	sort.Slice(photos, func(i, j int) bool {
		if !photos[i].UploadedAt.Equal(photos[j].UploadedAt) {
			return photos[i].UploadedAt.Before(photos[j].UploadedAt)
		}
		return photos[i].ID < photos[j].ID
	})
	return photos, nil
}

// SetFingerprint writes the fingerprint of a photo.
func (m *Store) SetFingerprint(_ context.Context, id int64, hash string) error {
	if m.SetFingerprintError != nil {
		return m.SetFingerprintError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return database.ErrNotFound
	}
	p.ImageHash = hash
	m.photos[id] = p
	return nil
}

// DeletePhotos removes the given photos; all or none.
func (m *Store) DeletePhotos(_ context.Context, ids []int64) error {
	if m.DeletePhotosError != nil {
		return m.DeletePhotosError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.photos[id]; !ok {
			return database.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(m.photos, id)
	}
	return nil
}

// Admins returns the registered recipients.
func (m *Store) Admins(context.Context) ([]database.Admin, error) {
	if m.AdminsError != nil {
		return nil, m.AdminsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Admin, len(m.admins))
	copy(out, m.admins)
	return out, nil
}

// NotifiedRecipients returns recipients already notified about a photo.
func (m *Store) NotifiedRecipients(_ context.Context, photoID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, n := range m.notifications {
		if n.PhotoID == photoID && !seen[n.RecipientID] {
			seen[n.RecipientID] = true
			ids = append(ids, n.RecipientID)
		}
	}
	return ids, nil
}

// CreateNotifications stores notifications.
func (m *Store) CreateNotifications(_ context.Context, notes []database.Notification) error {
	if m.CreateNotificationsError != nil {
		return m.CreateNotificationsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range notes {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		m.notifications = append(m.notifications, n)
	}
	return nil
}
