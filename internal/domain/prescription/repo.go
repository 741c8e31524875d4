package prescription

import (
	"context"
	"errors"

	"github.com/careward/careward/internal/platform/docgen"
)

// ErrNotFound reports a missing prescription.
var ErrNotFound = errors.New("prescription not found")

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Status               string
	AdministrationStatus string
}

// Repository is the persistence contract for prescriptions. Create exists
// for ingestion from the doctor system; nurse-facing code never authors
// clinical content.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id string) (*Prescription, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Prescription, int, error)
	SetDocument(ctx context.Context, id string, loc *docgen.Locator) error
}
