package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/internal/platform/idgen"
)

// Pipeline renders documents and caches them in the blob store. All rendered
// output goes through the same store as uploaded attachments; the pipeline
// never writes to the local filesystem.
type Pipeline struct {
	blobs  blobstore.BlobStore
	ids    *idgen.Generator
	render Renderer
	now    func() time.Time
}

// NewPipeline wires a Pipeline. All dependencies are required.
func NewPipeline(blobs blobstore.BlobStore, ids *idgen.Generator, render Renderer) *Pipeline {
	return &Pipeline{blobs: blobs, ids: ids, render: render, now: time.Now}
}

// Generate allocates the next display sequence for the patient and kind,
// renders the document, and stores the bytes. On any failure no locator is
// returned, so the owning record stays without a document; a half-rendered
// state is never persisted.
func (p *Pipeline) Generate(ctx context.Context, kind idgen.Kind, patientID string, doc Document) (*Locator, error) {
	seq, err := p.ids.DocumentSequence(ctx, patientID, kind)
	if err != nil {
		return nil, err
	}
	fileName := p.ids.DocumentFileName(kind, patientID, seq)

	raw, err := p.render.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", fileName, err)
	}

	handle, err := p.blobs.Store(ctx, bytes.NewReader(raw), blobstore.ObjectMeta{
		Name:        fileName,
		ContentType: "application/pdf",
		Tags: map[string]string{
			"patientId": patientID,
			"docKind":   string(kind),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", fileName, err)
	}

	return &Locator{Handle: handle, FileName: fileName, GeneratedAt: p.now()}, nil
}

// Replace renders a fresh document and, once the new object is stored,
// deletes the superseded blob. Cleanup is best effort: a failed delete is
// logged and the new locator is still returned, leaving at worst one orphan
// rather than a dangling reference.
func (p *Pipeline) Replace(ctx context.Context, kind idgen.Kind, patientID string, old *Locator, doc Document) (*Locator, error) {
	loc, err := p.Generate(ctx, kind, patientID, doc)
	if err != nil {
		return nil, err
	}

	if old != nil {
		if err := p.blobs.Delete(ctx, old.Handle); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			log.Warn().Err(err).
				Str("handle", string(old.Handle)).
				Str("fileName", old.FileName).
				Msg("failed to delete superseded document blob")
		}
	}
	return loc, nil
}

// Discard removes the blob behind a locator. Used when a freshly rendered
// document could not be attached to its record.
func (p *Pipeline) Discard(ctx context.Context, loc *Locator) {
	if loc == nil {
		return
	}
	if err := p.blobs.Delete(ctx, loc.Handle); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		log.Warn().Err(err).
			Str("handle", string(loc.Handle)).
			Str("fileName", loc.FileName).
			Msg("failed to discard orphaned document blob")
	}
}

// Open streams the bytes behind a locator. A nil locator or a locator whose
// object has been removed yields ErrDocumentMissing; fetching is strict and
// never triggers a re-render.
func (p *Pipeline) Open(ctx context.Context, loc *Locator) (io.ReadCloser, error) {
	if loc == nil {
		return nil, ErrDocumentMissing
	}
	rc, err := p.blobs.Open(ctx, loc.Handle)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidHandle) {
			return nil, ErrDocumentMissing
		}
		return nil, err
	}
	return rc, nil
}
