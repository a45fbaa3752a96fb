package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/ebudnikov/dateguard/internal/database"
	"github.com/ebudnikov/dateguard/internal/database/mock"
	"github.com/ebudnikov/dateguard/internal/storage"
	"github.com/ebudnikov/dateguard/internal/tasks"
)

// testImage renders a high-contrast four-quadrant image whose average hash is
// stable across encoders.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			switch {
			case x < w/2 && y < h/2:
				v = 30
			case x >= w/2 && y < h/2:
				v = 90
			case x < w/2:
				v = 170
			default:
				v = 230
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func addPhoto(t *testing.T, store *mock.Store, profileID int64, ref, hash string, uploadedAt time.Time) int64 {
	t.Helper()
	photo := &database.Photo{
		ProfileID:  profileID,
		FileRef:    ref,
		ImageHash:  hash,
		UploadedAt: uploadedAt,
	}
	if err := store.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("creating photo: %v", err)
	}
	return photo.ID
}

func TestProcessPhotoComputesAndStoresHash(t *testing.T) {
	store := mock.NewStore()
	blobs := storage.NewMemStore()
	blobs.Put("p1.png", encodePNG(t, testImage(64, 64)))
	id := addPhoto(t, store, 7, "p1.png", "", time.Now())

	p := New(store, store, blobs, 0)
	result, err := p.ProcessPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessPhoto() error: %v", err)
	}
	if !result.HashComputed {
		t.Error("expected HashComputed to be true")
	}
	if result.DuplicatesFound != 0 {
		t.Errorf("expected no duplicates, got %d", result.DuplicatesFound)
	}

	photo, err := store.GetPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPhoto() error: %v", err)
	}
	if len(photo.ImageHash) != 16 {
		t.Errorf("expected 16-char fingerprint, got %q", photo.ImageHash)
	}
}

func TestProcessPhotoSkipsHashWhenPresent(t *testing.T) {
	store := mock.NewStore()
	// No blob behind the ref: the bytes must never be read.
	blobs := storage.NewMemStore()
	id := addPhoto(t, store, 7, "gone.png", "00000000000000ff", time.Now())

	p := New(store, store, blobs, 0)
	result, err := p.ProcessPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessPhoto() error: %v", err)
	}
	if result.HashComputed {
		t.Error("expected HashComputed to be false for an already-hashed photo")
	}
}

func TestProcessPhotoNotifiesAdminsWithDedupe(t *testing.T) {
	store := mock.NewStore()
	store.AddAdmin(database.Admin{ID: 100, Username: "alice"})
	store.AddAdmin(database.Admin{ID: 101, Username: "bob"})

	blobs := storage.NewMemStore()
	data := encodePNG(t, testImage(64, 64))
	blobs.Put("a.png", data)
	blobs.Put("b.png", data)

	addPhoto(t, store, 7, "a.png", "", time.Now().Add(-time.Hour))
	id := addPhoto(t, store, 7, "b.png", "", time.Now())

	p := New(store, store, blobs, 0)
	result, err := p.ProcessPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("first ProcessPhoto() error: %v", err)
	}
	if result.DuplicatesFound != 1 {
		t.Fatalf("expected 1 duplicate, got %d", result.DuplicatesFound)
	}
	if result.AdminsNotified != 2 {
		t.Fatalf("expected 2 admins notified, got %d", result.AdminsNotified)
	}

	// A second run must not pile up more notifications.
	result, err = p.ProcessPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("second ProcessPhoto() error: %v", err)
	}
	if result.AdminsNotified != 0 {
		t.Errorf("expected 0 new notifications on re-run, got %d", result.AdminsNotified)
	}
	if got := len(store.Notifications()); got != 2 {
		t.Errorf("expected 2 stored notifications, got %d", got)
	}
}

func TestProcessPhotoIgnoresOtherProfiles(t *testing.T) {
	store := mock.NewStore()
	store.AddAdmin(database.Admin{ID: 100, Username: "alice"})

	blobs := storage.NewMemStore()
	data := encodePNG(t, testImage(64, 64))
	blobs.Put("a.png", data)
	blobs.Put("b.png", data)

	addPhoto(t, store, 8, "a.png", "", time.Now().Add(-time.Hour))
	id := addPhoto(t, store, 7, "b.png", "", time.Now())

	p := New(store, store, blobs, 0)
	result, err := p.ProcessPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessPhoto() error: %v", err)
	}
	if result.DuplicatesFound != 0 {
		t.Errorf("expected no duplicates across profiles, got %d", result.DuplicatesFound)
	}
	if got := len(store.Notifications()); got != 0 {
		t.Errorf("expected no notifications, got %d", got)
	}
}

func TestProcessPhotoMissingBlobIsReadError(t *testing.T) {
	store := mock.NewStore()
	blobs := storage.NewMemStore()
	id := addPhoto(t, store, 7, "missing.png", "", time.Now())

	p := New(store, store, blobs, 0)
	_, err := p.ProcessPhoto(context.Background(), id)
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *ReadError, got %v", err)
	}
	if readErr.PhotoID != id {
		t.Errorf("expected photo ID %d in error, got %d", id, readErr.PhotoID)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Error("expected error to wrap storage.ErrNotFound")
	}
}

func TestProcessPhotoUndecodableBytesIsPermanent(t *testing.T) {
	store := mock.NewStore()
	blobs := storage.NewMemStore()
	blobs.Put("junk.png", []byte("not an image at all"))
	id := addPhoto(t, store, 7, "junk.png", "", time.Now())

	p := New(store, store, blobs, 0)
	_, err := p.ProcessPhoto(context.Background(), id)
	if err == nil {
		t.Fatal("expected an error for undecodable bytes")
	}
	var readErr *ReadError
	if errors.As(err, &readErr) {
		t.Error("decode failure must not be classified as a storage read error")
	}
}

func TestEnqueueRetriesMissingBlob(t *testing.T) {
	store := mock.NewStore()
	blobs := storage.NewMemStore()
	id := addPhoto(t, store, 7, "late.png", "", time.Now())

	q := tasks.New(tasks.Options{Workers: 1, MaxRetries: 1, Backoff: 5 * time.Millisecond})
	q.Start()
	defer q.Stop(context.Background())

	p := New(store, store, blobs, 0)
	taskID := p.Enqueue(q, id, 0)

	deadline := time.Now().Add(2 * time.Second)
	for {
		task, ok := q.Task(taskID)
		if ok && task.Status == tasks.StatusFailed {
			if task.Attempts != 2 {
				t.Errorf("expected the read failure to be retried once, got %d attempts", task.Attempts)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never failed, last state %+v", task)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProcessPhotoUnknownID(t *testing.T) {
	store := mock.NewStore()
	p := New(store, store, storage.NewMemStore(), 0)
	_, err := p.ProcessPhoto(context.Background(), 42)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
