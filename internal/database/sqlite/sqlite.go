// Package sqlite implements the persistence backend on an embedded SQLite
// database. It is the default backend for the CLI: no server required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ebudnikov/dateguard/internal/database"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS photos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id  INTEGER NOT NULL,
	file_ref    TEXT NOT NULL,
	image_hash  TEXT NOT NULL DEFAULT '',
	uploaded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_photos_profile ON photos(profile_id);

CREATE TABLE IF NOT EXISTS admins (
	id       INTEGER PRIMARY KEY,
	username TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	recipient_id INTEGER NOT NULL,
	message      TEXT NOT NULL,
	kind         TEXT NOT NULL,
	photo_id     INTEGER NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_photo ON notifications(photo_id);
`

// Store is a SQLite-backed database.Store.
type Store struct {
	db *sql.DB
}

var _ database.Store = (*Store)(nil)

// Open opens (or creates) the database file at path. Use ":memory:" for an
// ephemeral database in tests.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating sqlite schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite database: %w", err)
	}
	return nil
}

// CreatePhoto inserts a photo and fills in its assigned ID.
func (s *Store) CreatePhoto(ctx context.Context, p *database.Photo) error {
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (profile_id, file_ref, image_hash, uploaded_at) VALUES (?, ?, ?, ?)`,
		p.ProfileID, p.FileRef, p.ImageHash, p.UploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading photo id: %w", err)
	}
	p.ID = id
	return nil
}

// GetPhoto retrieves a photo by ID.
func (s *Store) GetPhoto(ctx context.Context, id int64) (*database.Photo, error) {
	var p database.Photo
	var uploaded int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, file_ref, image_hash, uploaded_at FROM photos WHERE id = ?`, id).
		Scan(&p.ID, &p.ProfileID, &p.FileRef, &p.ImageHash, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying photo %d: %w", id, err)
	}
	p.UploadedAt = time.Unix(uploaded, 0).UTC()
	return &p, nil
}

// ListPhotos returns the photos of one profile (0 for all), oldest first.
func (s *Store) ListPhotos(ctx context.Context, profileID int64) ([]database.Photo, error) {
	query := `SELECT id, profile_id, file_ref, image_hash, uploaded_at FROM photos ORDER BY uploaded_at, id`
	args := []any{}
	if profileID != 0 {
		query = `SELECT id, profile_id, file_ref, image_hash, uploaded_at FROM photos WHERE profile_id = ? ORDER BY uploaded_at, id`
		args = append(args, profileID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	var photos []database.Photo
	for rows.Next() {
		var p database.Photo
		var uploaded int64
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.FileRef, &p.ImageHash, &uploaded); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		p.UploadedAt = time.Unix(uploaded, 0).UTC()
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating photos: %w", err)
	}
	return photos, nil
}

// SetFingerprint writes the image_hash column directly.
func (s *Store) SetFingerprint(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE photos SET image_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("updating fingerprint of photo %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeletePhotos removes the given photos atomically.
func (s *Store) DeletePhotos(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("deleting photo %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// Admins returns the notification recipients.
func (s *Store) Admins(ctx context.Context) ([]database.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username FROM admins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying admins: %w", err)
	}
	defer rows.Close()

	var admins []database.Admin
	for rows.Next() {
		var a database.Admin
		if err := rows.Scan(&a.ID, &a.Username); err != nil {
			return nil, fmt.Errorf("scanning admin: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admins: %w", err)
	}
	return admins, nil
}

// AddAdmin registers a notification recipient.
func (s *Store) AddAdmin(ctx context.Context, a database.Admin) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO admins (id, username) VALUES (?, ?)`, a.ID, a.Username); err != nil {
		return fmt.Errorf("inserting admin: %w", err)
	}
	return nil
}

// NotifiedRecipients returns recipient IDs already notified about a photo.
func (s *Store) NotifiedRecipients(ctx context.Context, photoID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT recipient_id FROM notifications WHERE photo_id = ?`, photoID)
	if err != nil {
		return nil, fmt.Errorf("querying notified recipients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning recipient: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipients: %w", err)
	}
	return ids, nil
}

// CreateNotifications inserts notifications in one transaction.
func (s *Store) CreateNotifications(ctx context.Context, notes []database.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting notification transaction: %w", err)
	}
	for _, n := range notes {
		created := n.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (id, recipient_id, message, kind, photo_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, n.RecipientID, n.Message, n.Type, n.PhotoID, created.Unix()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting notification: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notifications: %w", err)
	}
	return nil
}
