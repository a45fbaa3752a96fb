// Package pipeline orchestrates post-upload photo processing: read the stored
// bytes, compute the perceptual fingerprint, search the owner's photos for
// near-duplicates and alert the admins when any are found.
//
// Every step is idempotent: a fingerprint already persisted is never
// recomputed, and admins already alerted about a photo are never alerted
// again. The pipeline can therefore run under at-least-once task delivery.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ebudnikov/dateguard/internal/database"
	"github.com/ebudnikov/dateguard/internal/duplicate"
	"github.com/ebudnikov/dateguard/internal/fingerprint"
	"github.com/ebudnikov/dateguard/internal/storage"
	"github.com/ebudnikov/dateguard/internal/tasks"
)

// TaskName identifies photo processing tasks in the queue.
const TaskName = "process-photo"

// ReadError reports photo bytes that could not be read from storage. It is
// transient: the upload may still be settling, so the task is retried.
type ReadError struct {
	PhotoID int64
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading bytes of photo %d: %v", e.PhotoID, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Result summarizes one pipeline run for a photo.
type Result struct {
	PhotoID         int64
	HashComputed    bool
	DuplicatesFound int
	AdminsNotified  int
}

// Pipeline wires the photo store, the notification store and the blob store
// together.
type Pipeline struct {
	photos    database.PhotoStore
	notes     database.NotificationStore
	blobs     storage.BlobStore
	threshold int
}

// New creates a pipeline. A non-positive threshold falls back to the default.
func New(photos database.PhotoStore, notes database.NotificationStore, blobs storage.BlobStore, threshold int) *Pipeline {
	if threshold <= 0 {
		threshold = duplicate.DefaultThreshold
	}
	return &Pipeline{
		photos:    photos,
		notes:     notes,
		blobs:     blobs,
		threshold: threshold,
	}
}

// ProcessPhoto runs the full pipeline for one photo. Running it again on an
// already-hashed photo skips the hash step but re-runs the duplicate check.
func (p *Pipeline) ProcessPhoto(ctx context.Context, photoID int64) (*Result, error) {
	photo, err := p.photos.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("loading photo %d: %w", photoID, err)
	}

	result := &Result{PhotoID: photoID}

	hash := photo.ImageHash
	if hash == "" {
		hash, err = p.computeAndStoreHash(ctx, photo)
		if err != nil {
			return nil, err
		}
		result.HashComputed = true
	}

	matches, err := p.findDuplicates(ctx, photo, hash)
	if err != nil {
		return nil, err
	}
	result.DuplicatesFound = len(matches)

	if len(matches) == 0 {
		return result, nil
	}

	log.Printf("pipeline: photo %d of profile %d has %d duplicate(s)", photo.ID, photo.ProfileID, len(matches))
	notified, err := p.notifyAdmins(ctx, photo, len(matches))
	if err != nil {
		return nil, err
	}
	result.AdminsNotified = notified
	return result, nil
}

// CheckUpload fingerprints raw upload bytes and, when a profile is given,
// searches that profile's stored photos for near-duplicates. Nothing is
// stored; this backs the pre-upload check endpoint.
func (p *Pipeline) CheckUpload(ctx context.Context, data []byte, profileID int64) (string, []duplicate.Match, error) {
	fp, err := fingerprint.Compute(data)
	if err != nil {
		return "", nil, fmt.Errorf("fingerprinting upload: %w", err)
	}
	hash := fp.String()

	if profileID == 0 {
		return hash, nil, nil
	}

	matches, err := p.findDuplicates(ctx, &database.Photo{ProfileID: profileID}, hash)
	if err != nil {
		return "", nil, err
	}
	return hash, matches, nil
}

// computeAndStoreHash reads the photo bytes, fingerprints them and persists
// the result through the direct column write, which cannot re-trigger
// processing.
func (p *Pipeline) computeAndStoreHash(ctx context.Context, photo *database.Photo) (string, error) {
	data, err := p.blobs.Read(ctx, photo.FileRef)
	if err != nil {
		return "", &ReadError{PhotoID: photo.ID, Err: err}
	}

	fp, err := fingerprint.Compute(data)
	if err != nil {
		// Undecodable bytes are a permanent data problem, not worth retrying.
		return "", fmt.Errorf("fingerprinting photo %d: %w", photo.ID, err)
	}

	hash := fp.String()
	if err := p.photos.SetFingerprint(ctx, photo.ID, hash); err != nil {
		return "", fmt.Errorf("persisting fingerprint of photo %d: %w", photo.ID, err)
	}
	return hash, nil
}

// findDuplicates searches the owning profile's photos, excluding the photo
// itself.
func (p *Pipeline) findDuplicates(ctx context.Context, photo *database.Photo, hash string) ([]duplicate.Match, error) {
	pool, err := p.photos.ListPhotos(ctx, photo.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("listing photos of profile %d: %w", photo.ProfileID, err)
	}

	candidates := make([]duplicate.Candidate, 0, len(pool))
	for _, c := range pool {
		candidates = append(candidates, duplicate.Candidate{ID: c.ID, Hash: c.ImageHash})
	}

	matches, err := duplicate.FindSimilar(hash, candidates, photo.ID, p.threshold)
	if err != nil {
		return nil, fmt.Errorf("searching duplicates of photo %d: %w", photo.ID, err)
	}
	return matches, nil
}

// notifyAdmins creates one notification per admin not yet alerted about this
// photo. Returns the number of notifications created.
func (p *Pipeline) notifyAdmins(ctx context.Context, photo *database.Photo, matchCount int) (int, error) {
	admins, err := p.notes.Admins(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing admins: %w", err)
	}
	if len(admins) == 0 {
		log.Printf("pipeline: no admins to notify about photo %d", photo.ID)
		return 0, nil
	}

	already, err := p.notes.NotifiedRecipients(ctx, photo.ID)
	if err != nil {
		return 0, fmt.Errorf("listing notified recipients: %w", err)
	}
	seen := make(map[int64]bool, len(already))
	for _, id := range already {
		seen[id] = true
	}

	message := fmt.Sprintf(
		"Profile %d uploaded photo #%d which has %d duplicate(s). Review required.",
		photo.ProfileID, photo.ID, matchCount)

	var notes []database.Notification
	for _, admin := range admins {
		if seen[admin.ID] {
			continue
		}
		notes = append(notes, database.Notification{
			ID:          uuid.NewString(),
			RecipientID: admin.ID,
			Message:     message,
			Type:        "ADMIN",
			PhotoID:     photo.ID,
			CreatedAt:   time.Now().UTC(),
		})
	}
	if len(notes) == 0 {
		return 0, nil
	}

	if err := p.notes.CreateNotifications(ctx, notes); err != nil {
		return 0, fmt.Errorf("creating notifications: %w", err)
	}
	return len(notes), nil
}

// Enqueue schedules ProcessPhoto on the queue after the given delay, mapping
// storage read failures to retryable task errors.
func (p *Pipeline) Enqueue(q *tasks.Queue, photoID int64, delay time.Duration) string {
	return q.Enqueue(TaskName, delay, func(ctx context.Context) error {
		_, err := p.ProcessPhoto(ctx, photoID)
		var readErr *ReadError
		if errors.As(err, &readErr) {
			return tasks.MarkTransient(err)
		}
		return err
	})
}
