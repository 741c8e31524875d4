package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	content := []byte("hello ward")
	h, err := store.Store(ctx, bytes.NewReader(content), ObjectMeta{
		Name:        "note.txt",
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if h == "" {
		t.Fatal("expected non-empty handle")
	}

	rc, err := store.Open(ctx, h)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("round trip mismatch: got %q want %q", got, content)
	}

	meta, ok := store.Meta(h)
	if !ok {
		t.Fatal("expected metadata for stored handle")
	}
	if meta.Name != "note.txt" || meta.ContentType != "text/plain" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	h, err := store.Store(ctx, bytes.NewReader([]byte("x")), ObjectMeta{Name: "x"})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := store.Delete(ctx, h); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d objects", store.Len())
	}

	// Deletion is not idempotent: a second delete reports NotFound.
	if err := store.Delete(ctx, h); !errors.Is(err, ErrNotFound) {
		t.Errorf("repeat delete: got %v, want ErrNotFound", err)
	}
	if _, err := store.Open(ctx, h); !errors.Is(err, ErrNotFound) {
		t.Errorf("open after delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreInvalidHandle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, h := range []Handle{"", "nope", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := store.Open(ctx, h); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("Open(%q): got %v, want ErrInvalidHandle", h, err)
		}
		if err := store.Delete(ctx, h); !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("Delete(%q): got %v, want ErrInvalidHandle", h, err)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestMemoryStoreWriteFailure(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Store(context.Background(), failingReader{}, ObjectMeta{Name: "x"})
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("got %v, want ErrWriteFailed", err)
	}
	if store.Len() != 0 {
		t.Errorf("failed write must not leave a partial object, got %d", store.Len())
	}
}
