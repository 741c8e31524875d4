package docgen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/internal/platform/idgen"
)

type stubRenderer struct {
	out []byte
	err error
}

func (r stubRenderer) Render(Document) ([]byte, error) { return r.out, r.err }

func sampleDoc() Document {
	return Document{
		Title:      "Prescription",
		Prescriber: Identity{Lines: []string{"Dr. A. Rao", "Cardiology"}},
		Patient:    Identity{Lines: []string{"Name: J. Doe", "ID: 20240301001"}},
		Sections:   []Section{{Heading: "Diagnosis", Lines: []string{"Hypertension"}}},
		FooterDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestPipeline(blobs blobstore.BlobStore, r Renderer) *Pipeline {
	ids := idgen.New(idgen.NewMemoryCounters())
	return NewPipeline(blobs, ids, r)
}

func TestPipelineGenerate(t *testing.T) {
	store := blobstore.NewMemoryStore()
	p := newTestPipeline(store, stubRenderer{out: []byte("%PDF-stub")})
	ctx := context.Background()

	loc, err := p.Generate(ctx, idgen.KindPrescription, "20240301001", sampleDoc())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(loc.FileName, "PRXN-20240301001-P001-") {
		t.Errorf("unexpected file name %q", loc.FileName)
	}
	if loc.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}

	rc, err := p.Open(ctx, loc)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, []byte("%PDF-stub")) {
		t.Errorf("stored bytes mismatch: %q", got)
	}

	meta, ok := store.Meta(loc.Handle)
	if !ok {
		t.Fatal("expected blob metadata")
	}
	if meta.ContentType != "application/pdf" {
		t.Errorf("content type: got %q", meta.ContentType)
	}
	if meta.Tags["patientId"] != "20240301001" {
		t.Errorf("patient tag: got %q", meta.Tags["patientId"])
	}
}

func TestPipelineGenerateRenderFailureStoresNothing(t *testing.T) {
	store := blobstore.NewMemoryStore()
	p := newTestPipeline(store, stubRenderer{err: errors.New("font missing")})

	if _, err := p.Generate(context.Background(), idgen.KindPrescription, "20240301001", sampleDoc()); err == nil {
		t.Fatal("expected render error")
	}
	if store.Len() != 0 {
		t.Errorf("failed render must not leave blobs, got %d", store.Len())
	}
}

func TestPipelineReplaceCleansUpOldBlob(t *testing.T) {
	store := blobstore.NewMemoryStore()
	p := newTestPipeline(store, stubRenderer{out: []byte("%PDF-stub")})
	ctx := context.Background()

	old, err := p.Generate(ctx, idgen.KindLabReport, "20240301001", sampleDoc())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	replacement, err := p.Replace(ctx, idgen.KindLabReport, "20240301001", old, sampleDoc())
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if replacement.Handle == old.Handle {
		t.Error("replacement must get a fresh handle")
	}
	if !strings.Contains(replacement.FileName, "-L002-") {
		t.Errorf("replacement sequence should advance: %q", replacement.FileName)
	}
	if store.Len() != 1 {
		t.Errorf("superseded blob should be deleted, store holds %d", store.Len())
	}
	if _, err := store.Open(ctx, old.Handle); !errors.Is(err, blobstore.ErrNotFound) {
		t.Errorf("old blob still readable: %v", err)
	}
}

func TestPipelineReplaceToleratesMissingOldBlob(t *testing.T) {
	store := blobstore.NewMemoryStore()
	p := newTestPipeline(store, stubRenderer{out: []byte("%PDF-stub")})
	ctx := context.Background()

	old, err := p.Generate(ctx, idgen.KindLabReport, "20240301001", sampleDoc())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := store.Delete(ctx, old.Handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := p.Replace(ctx, idgen.KindLabReport, "20240301001", old, sampleDoc()); err != nil {
		t.Fatalf("Replace with already-gone blob: %v", err)
	}
}

func TestPipelineOpenMissing(t *testing.T) {
	store := blobstore.NewMemoryStore()
	p := newTestPipeline(store, stubRenderer{out: []byte("%PDF-stub")})
	ctx := context.Background()

	if _, err := p.Open(ctx, nil); !errors.Is(err, ErrDocumentMissing) {
		t.Errorf("nil locator: got %v, want ErrDocumentMissing", err)
	}

	loc, err := p.Generate(ctx, idgen.KindPrescription, "20240301001", sampleDoc())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := store.Delete(ctx, loc.Handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := p.Open(ctx, loc); !errors.Is(err, ErrDocumentMissing) {
		t.Errorf("dangling locator: got %v, want ErrDocumentMissing", err)
	}
}

func TestPDFRendererOutput(t *testing.T) {
	raw, err := NewPDFRenderer().Render(sampleDoc())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", raw[:min(16, len(raw))])
	}
}
