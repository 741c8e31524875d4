// Package docgen renders clinical documents to PDF and caches the result in
// the blob store. Domain services describe a document in layout-neutral terms
// (identity blocks plus ordered sections); the renderer decides typography.
package docgen

import (
	"errors"
	"time"

	"github.com/careward/careward/internal/platform/blobstore"
)

// ErrDocumentMissing reports a locator whose underlying object no longer
// exists in the blob store. Fetching never re-renders; callers surface this
// to the client.
var ErrDocumentMissing = errors.New("rendered document missing from store")

// Identity is a labeled block of lines, e.g. the prescriber or patient block.
type Identity struct {
	Lines []string
}

// Item is a numbered entry within a section, such as one medication.
type Item struct {
	Name    string
	Details []string
}

// Section is an ordered part of the document body. A section has either
// plain lines or numbered items, not both.
type Section struct {
	Heading string
	Lines   []string
	Items   []Item
}

// Document is the layout-neutral description a renderer consumes.
type Document struct {
	Title      string
	Prescriber Identity
	Patient    Identity
	Sections   []Section
	FooterDate time.Time
}

// Renderer turns a Document into final bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// Locator records where a rendered document lives. It is embedded in the
// owning clinical record; a nil locator means no document has been rendered.
type Locator struct {
	Handle      blobstore.Handle `bson:"handle" json:"handle"`
	FileName    string           `bson:"file_name" json:"fileName"`
	GeneratedAt time.Time        `bson:"generated_at" json:"generatedAt"`
}
