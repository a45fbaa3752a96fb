package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebudnikov/dateguard/internal/duplicate"
	"github.com/ebudnikov/dateguard/internal/pipeline"
	"github.com/ebudnikov/dateguard/internal/tasks"
	"github.com/ebudnikov/dateguard/internal/validate"
)

// maxUploadBytes bounds the request body read; anything above the validation
// limit is rejected anyway.
const maxUploadBytes = validate.MaxBytes + 1

// PhotosHandler serves the photo moderation API.
type PhotosHandler struct {
	pipeline     *pipeline.Pipeline
	queue        *tasks.Queue
	initialDelay time.Duration
}

// NewPhotosHandler creates a photos handler.
func NewPhotosHandler(pipe *pipeline.Pipeline, queue *tasks.Queue, initialDelay time.Duration) *PhotosHandler {
	return &PhotosHandler{
		pipeline:     pipe,
		queue:        queue,
		initialDelay: initialDelay,
	}
}

// checkResponse is the body of the pre-upload check endpoint.
type checkResponse struct {
	*validate.Report
	Fingerprint string            `json:"fingerprint,omitempty"`
	Duplicates  []duplicate.Match `json:"duplicates,omitempty"`
}

// Check validates uploaded photo bytes without storing anything. With a
// profile_id, the photo is also fingerprinted and compared against that
// profile's stored photos; a near-duplicate blocks the upload.
func (h *PhotosHandler) Check(w http.ResponseWriter, r *http.Request) {
	data, profileID, err := readUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := checkResponse{Report: validate.Check(data)}
	if resp.Valid {
		hash, matches, err := h.pipeline.CheckUpload(r.Context(), data, profileID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "duplicate check failed")
			return
		}
		resp.Fingerprint = hash
		resp.Duplicates = matches
		if len(matches) > 0 {
			resp.Valid = false
			resp.Errors = append(resp.Errors, fmt.Sprintf("near-duplicate of %d existing photo(s)", len(matches)))
		}
	}

	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, resp)
}

// readUpload extracts photo bytes and the optional profile ID from the
// request. Multipart uploads use the photo file field and the profile_id form
// value; raw bodies use the profile_id query parameter.
func readUpload(r *http.Request) ([]byte, int64, error) {
	profileParam := r.URL.Query().Get("profile_id")

	var body io.Reader = r.Body
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, 0, errors.New("parsing multipart form failed")
		}
		file, _, err := r.FormFile("photo")
		if err != nil {
			return nil, 0, errors.New("missing photo file field")
		}
		defer file.Close()
		body = file
		if v := r.FormValue("profile_id"); v != "" {
			profileParam = v
		}
	}

	data, err := io.ReadAll(io.LimitReader(body, maxUploadBytes))
	if err != nil {
		return nil, 0, errors.New("reading upload failed")
	}

	var profileID int64
	if profileParam != "" {
		profileID, err = strconv.ParseInt(profileParam, 10, 64)
		if err != nil || profileID < 1 {
			return nil, 0, errors.New("invalid profile_id")
		}
	}
	return data, profileID, nil
}

// Process schedules duplicate detection for a stored photo.
func (h *PhotosHandler) Process(w http.ResponseWriter, r *http.Request) {
	photoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || photoID < 1 {
		respondError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	taskID := h.pipeline.Enqueue(h.queue, photoID, h.initialDelay)
	if taskID == "" {
		respondError(w, http.StatusServiceUnavailable, "task queue is shut down")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"photo_id": photoID,
		"task_id":  taskID,
	})
}

// TaskStatus reports the state of a scheduled processing task.
func (h *PhotosHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := h.queue.Task(chi.URLParam(r, "taskId"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown task")
		return
	}

	resp := map[string]any{
		"task_id":  task.ID,
		"name":     task.Name,
		"status":   task.Status,
		"attempts": task.Attempts,
	}
	if task.Err != nil {
		resp["error"] = task.Err.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}
