// Package database defines the persistence interfaces of the service and the
// record types they exchange. Concrete backends live in the subpackages
// (postgres, mariadb, sqlite) plus an in-memory mock for tests.
package database

import "time"

// Photo is one stored photo record. The pipeline only ever touches ImageHash
// and reads the rest.
type Photo struct {
	ID         int64
	ProfileID  int64
	FileRef    string // key into the blob store
	ImageHash  string // 16-char hex fingerprint, empty until computed
	UploadedAt time.Time
}

// Notification is one admin alert about a flagged photo.
type Notification struct {
	ID          string // uuid
	RecipientID int64
	Message     string
	Type        string // "ADMIN" for duplicate alerts
	PhotoID     int64
	CreatedAt   time.Time
}

// Admin is a notification recipient.
type Admin struct {
	ID       int64
	Username string
}
