package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebudnikov/dateguard/internal/database"
	"github.com/ebudnikov/dateguard/internal/database/mock"
	"github.com/ebudnikov/dateguard/internal/pipeline"
	"github.com/ebudnikov/dateguard/internal/storage"
	"github.com/ebudnikov/dateguard/internal/tasks"
)

type photosFixture struct {
	store  *mock.Store
	blobs  *storage.MemStore
	queue  *tasks.Queue
	router *chi.Mux
}

func newPhotosFixture(t *testing.T) *photosFixture {
	t.Helper()
	store := mock.NewStore()
	blobs := storage.NewMemStore()
	queue := tasks.New(tasks.Options{Workers: 1, MaxRetries: 1, Backoff: 5 * time.Millisecond})
	queue.Start()
	t.Cleanup(func() { queue.Stop(context.Background()) })

	h := NewPhotosHandler(pipeline.New(store, store, blobs, 0), queue, 0)
	r := chi.NewRouter()
	r.Post("/photos/check", h.Check)
	r.Post("/photos/{id}/process", h.Process)
	r.Get("/photos/tasks/{taskId}", h.TaskStatus)

	return &photosFixture{store: store, blobs: blobs, queue: queue, router: r}
}

// validPhotoBytes renders deterministic noise so the PNG stays above the
// minimum upload size.
func validPhotoBytes(t *testing.T) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func postBytes(t *testing.T, r http.Handler, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPhotosCheckAcceptsValidPhoto(t *testing.T) {
	f := newPhotosFixture(t)
	rec := postBytes(t, f.router, "/photos/check", validPhotoBytes(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["valid"] != true {
		t.Errorf("expected valid report, got %v", body)
	}
}

func TestPhotosCheckRejectsJunk(t *testing.T) {
	f := newPhotosFixture(t)
	rec := postBytes(t, f.router, "/photos/check", []byte("junk"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["valid"] != false {
		t.Errorf("expected invalid report, got %v", body)
	}
	if errs, ok := body["errors"].([]any); !ok || len(errs) == 0 {
		t.Errorf("expected blocking errors, got %v", body)
	}
}

func multipartUpload(t *testing.T, photo []byte, profileID string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "upload.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write(photo); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if profileID != "" {
		if err := mw.WriteField("profile_id", profileID); err != nil {
			t.Fatalf("writing profile_id field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestPhotosCheckMultipartBlocksDuplicate(t *testing.T) {
	f := newPhotosFixture(t)
	photoBytes := validPhotoBytes(t)

	// Same bytes already stored for the profile.
	f.blobs.Put("existing.png", photoBytes)
	existing := &database.Photo{ProfileID: 7, FileRef: "existing.png"}
	if err := f.store.CreatePhoto(context.Background(), existing); err != nil {
		t.Fatalf("creating photo: %v", err)
	}
	hash, _, err := pipeline.New(f.store, f.store, f.blobs, 0).CheckUpload(context.Background(), photoBytes, 0)
	if err != nil {
		t.Fatalf("CheckUpload() error: %v", err)
	}
	if err := f.store.SetFingerprint(context.Background(), existing.ID, hash); err != nil {
		t.Fatalf("SetFingerprint() error: %v", err)
	}

	body, contentType := multipartUpload(t, photoBytes, "7")
	req := httptest.NewRequest(http.MethodPost, "/photos/check", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate upload, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["valid"] != false {
		t.Errorf("expected invalid report, got %v", resp)
	}
	dups, ok := resp["duplicates"].([]any)
	if !ok || len(dups) != 1 {
		t.Fatalf("expected one duplicate match, got %v", resp["duplicates"])
	}
}

func TestPhotosCheckMultipartNoDuplicates(t *testing.T) {
	f := newPhotosFixture(t)

	body, contentType := multipartUpload(t, validPhotoBytes(t), "7")
	req := httptest.NewRequest(http.MethodPost, "/photos/check", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["valid"] != true {
		t.Errorf("expected valid report, got %v", resp)
	}
	if fp, ok := resp["fingerprint"].(string); !ok || len(fp) != 16 {
		t.Errorf("expected 16-char fingerprint, got %v", resp["fingerprint"])
	}
}

func TestPhotosCheckRejectsBadProfileID(t *testing.T) {
	f := newPhotosFixture(t)
	rec := postBytes(t, f.router, "/photos/check?profile_id=abc", validPhotoBytes(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPhotosProcessSchedulesTask(t *testing.T) {
	f := newPhotosFixture(t)
	f.blobs.Put("p.png", validPhotoBytes(t))
	photo := &database.Photo{ProfileID: 7, FileRef: "p.png"}
	if err := f.store.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("creating photo: %v", err)
	}

	rec := postBytes(t, f.router, "/photos/1/process", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	taskID, ok := body["task_id"].(string)
	if !ok || taskID == "" {
		t.Fatalf("missing task_id in %v", body)
	}

	// The status endpoint must know the task immediately.
	req := httptest.NewRequest(http.MethodGet, "/photos/tasks/"+taskID, nil)
	statusRec := httptest.NewRecorder()
	f.router.ServeHTTP(statusRec, req)
	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from task status, got %d", statusRec.Code)
	}

	// Wait for the pipeline to fingerprint the photo.
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, err := f.store.GetPhoto(context.Background(), photo.ID)
		if err != nil {
			t.Fatalf("GetPhoto() error: %v", err)
		}
		if p.ImageHash != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("photo never got fingerprinted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPhotosProcessRejectsBadID(t *testing.T) {
	f := newPhotosFixture(t)
	for _, target := range []string{"/photos/abc/process", "/photos/0/process", "/photos/-3/process"} {
		if rec := postBytes(t, f.router, target, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestPhotosTaskStatusUnknown(t *testing.T) {
	f := newPhotosFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/photos/tasks/nope", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
