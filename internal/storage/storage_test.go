package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	ctx := context.Background()
	want := []byte("photo bytes")
	if err := store.Write(ctx, "profiles/7/photo.jpg", want); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := store.Read(ctx, "profiles/7/photo.jpg")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestFSStoreMissingBlob(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	_, err = store.Read(context.Background(), "nope.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFSStoreEmptyFileIsNotFound(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	ctx := context.Background()
	if err := store.Write(ctx, "partial.jpg", nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if _, err := store.Read(ctx, "partial.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty file, got %v", err)
	}
}

func TestFSStoreConfinesReferences(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(filepath.Join(root, "blobs"))
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	ctx := context.Background()
	if err := store.Write(ctx, "inner.jpg", []byte("x")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	// A traversal reference must never escape the root.
	if _, err := store.Read(ctx, "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal reference to fail")
	}
}

func TestMemStoreErrorInjection(t *testing.T) {
	store := NewMemStore()
	store.Put("a", []byte("x"))

	boom := errors.New("disk on fire")
	store.ReadError = boom
	if _, err := store.Read(context.Background(), "a"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
