package patient

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports a missing patient, visit, or document.
	ErrNotFound = errors.New("patient record not found")
	// ErrDuplicateID reports a patient_id collision on insert.
	ErrDuplicateID = errors.New("patient id already exists")
)

// Repository is the persistence contract for patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error)
	SetActive(ctx context.Context, patientID string, active bool) error
	AddVisit(ctx context.Context, patientID string, v Visit) error
	AddDocuments(ctx context.Context, patientID string, docs []Document) error
	RenameDocument(ctx context.Context, patientID, docID, name string) error
	RemoveDocument(ctx context.Context, patientID, docID string) error
	SetPhoto(ctx context.Context, patientID string, att *Attachment) error
	SetIDProof(ctx context.Context, patientID string, att *Attachment) error
}
