// Package blobstore provides binary attachment storage for the ward backend.
// It defines the BlobStore interface, a GridFS-backed implementation for
// production, and an in-memory implementation suitable for testing and
// development. Every binary object in the system (patient photos, ID proofs,
// uploaded documents, rendered PDFs) goes through this adapter; nothing else
// touches the chunked store directly.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrInvalidHandle reports a handle that is not a well-formed object
	// reference.
	ErrInvalidHandle = errors.New("invalid blob handle")
	// ErrNotFound reports that no object exists for a well-formed handle.
	// Repeat deletion of a missing handle yields this error too: idempotent
	// deletion is not part of the contract.
	ErrNotFound = errors.New("blob not found")
	// ErrWriteFailed wraps failures of the underlying write stream.
	ErrWriteFailed = errors.New("blob write failed")
	// ErrReadFailed wraps failures of the underlying read stream.
	ErrReadFailed = errors.New("blob read failed")
)

// Handle is an opaque reference to a stored object.
type Handle string

// ObjectMeta is the metadata bag recorded alongside a stored object.
type ObjectMeta struct {
	Name        string
	ContentType string
	Tags        map[string]string
}

// BlobStore is the contract for chunked binary-object storage backends.
// Store returns once the underlying write is durably acknowledged. No
// implementation retries; errors propagate to the caller synchronously.
type BlobStore interface {
	Store(ctx context.Context, content io.Reader, meta ObjectMeta) (Handle, error)
	Open(ctx context.Context, h Handle) (io.ReadCloser, error)
	Delete(ctx context.Context, h Handle) error
}

func parseHandle(h Handle) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(string(h))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidHandle
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedBlob struct {
	meta    ObjectMeta
	content []byte
}

// MemoryStore is a thread-safe, in-memory BlobStore for testing/dev. It
// issues the same handle shape as the GridFS store so the InvalidHandle
// contract holds across implementations.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[Handle]*storedBlob
}

// NewMemoryStore returns a ready-to-use MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[Handle]*storedBlob)}
}

func (s *MemoryStore) Store(_ context.Context, content io.Reader, meta ObjectMeta) (Handle, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", errors.Join(ErrWriteFailed, err)
	}

	h := Handle(primitive.NewObjectID().Hex())
	s.mu.Lock()
	s.blobs[h] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()
	return h, nil
}

func (s *MemoryStore) Open(_ context.Context, h Handle) (io.ReadCloser, error) {
	if _, err := parseHandle(h); err != nil {
		return nil, err
	}

	s.mu.RLock()
	blob, ok := s.blobs[h]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.content)), nil
}

func (s *MemoryStore) Delete(_ context.Context, h Handle) error {
	if _, err := parseHandle(h); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[h]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, h)
	return nil
}

// Meta returns the metadata recorded for a stored object.
func (s *MemoryStore) Meta(h Handle) (ObjectMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[h]
	if !ok {
		return ObjectMeta{}, false
	}
	return blob.meta, true
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
