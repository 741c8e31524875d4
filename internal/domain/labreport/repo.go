package labreport

import (
	"context"
	"errors"

	"github.com/careward/careward/internal/platform/docgen"
)

// ErrNotFound reports a missing lab report.
var ErrNotFound = errors.New("lab report not found")

// ListFilter narrows List results. Empty fields match everything.
type ListFilter struct {
	Status   string
	TestType string
}

// Repository is the persistence contract for lab reports.
type Repository interface {
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id string) (*LabReport, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*LabReport, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*LabReport, int, error)
	SetDocument(ctx context.Context, id string, loc *docgen.Locator) error
}
