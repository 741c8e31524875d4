package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/internal/platform/idgen"
)

// Service implements patient operations on top of the repository, the blob
// store, and the identifier generator.
type Service struct {
	repo  Repository
	blobs blobstore.BlobStore
	ids   *idgen.Generator
}

func NewService(repo Repository, blobs blobstore.BlobStore, ids *idgen.Generator) *Service {
	return &Service{repo: repo, blobs: blobs, ids: ids}
}

var validGenders = map[string]bool{
	"Male":   true,
	"Female": true,
	"Other":  true,
}

// Register validates the record, assigns the daily serial patient ID, and
// persists it. The assigned ID is immutable afterwards.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age <= 0 || p.Age > 150 {
		return fmt.Errorf("invalid age: %d", p.Age)
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}

	id, err := s.ids.PatientID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.PatientID = id
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, patientID string) (*Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

// Deactivate soft-deletes a patient. History, visits, and attachments stay.
func (s *Service) Deactivate(ctx context.Context, patientID string) error {
	return s.repo.SetActive(ctx, patientID, false)
}

// AddVisit records a ward visit, deriving BMI when vitals allow it.
func (s *Service) AddVisit(ctx context.Context, patientID string, v Visit, recordedBy string) (*Visit, error) {
	if v.ChiefComplaint == "" && v.WeightKg == 0 && v.HeightCm == 0 && v.Notes == "" {
		return nil, fmt.Errorf("visit must record a complaint, vitals, or notes")
	}

	v.ID = uuid.NewString()
	if v.Date.IsZero() {
		v.Date = time.Now().UTC()
	}
	v.RecordedBy = recordedBy
	v.BMI, v.BMICategory = ComputeBMI(v.WeightKg, v.HeightCm)

	if err := s.repo.AddVisit(ctx, patientID, v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) ListVisits(ctx context.Context, patientID string) ([]Visit, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return p.Visits, nil
}

// Upload is one incoming file of a multipart upload.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadDocuments stores each file in the blob store and appends the
// descriptors to the patient record. If the record update fails the freshly
// stored blobs are removed again so no orphans accumulate.
func (s *Service) UploadDocuments(ctx context.Context, patientID string, files []Upload, uploadedBy string) ([]Document, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided")
	}
	if _, err := s.repo.GetByPatientID(ctx, patientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	docs := make([]Document, 0, len(files))
	for _, f := range files {
		handle, err := s.blobs.Store(ctx, f.Content, blobstore.ObjectMeta{
			Name:        f.Name,
			ContentType: f.ContentType,
			Tags:        map[string]string{"patientId": patientID},
		})
		if err != nil {
			s.cleanupBlobs(ctx, docs)
			return nil, fmt.Errorf("store %s: %w", f.Name, err)
		}
		docs = append(docs, Document{
			ID:          uuid.NewString(),
			Name:        f.Name,
			ContentType: f.ContentType,
			Handle:      handle,
			Size:        f.Size,
			UploadedBy:  uploadedBy,
			UploadedAt:  now,
		})
	}

	if err := s.repo.AddDocuments(ctx, patientID, docs); err != nil {
		s.cleanupBlobs(ctx, docs)
		return nil, err
	}
	return docs, nil
}

func (s *Service) cleanupBlobs(ctx context.Context, docs []Document) {
	for _, d := range docs {
		if err := s.blobs.Delete(ctx, d.Handle); err != nil {
			log.Warn().Err(err).Str("handle", string(d.Handle)).Msg("failed to clean up blob after aborted upload")
		}
	}
}

func (s *Service) ListDocuments(ctx context.Context, patientID string) ([]Document, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return p.Documents, nil
}

// OpenDocument returns the descriptor and a stream of the document bytes.
func (s *Service) OpenDocument(ctx context.Context, patientID, docID string) (*Document, io.ReadCloser, error) {
	doc, err := s.findDocument(ctx, patientID, docID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.Handle)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", doc.Name, err)
	}
	return doc, rc, nil
}

func (s *Service) RenameDocument(ctx context.Context, patientID, docID, name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.RenameDocument(ctx, patientID, docID, name)
}

// DeleteDocument removes the descriptor and then the blob. Blob removal is
// best effort once the descriptor is gone; a failure leaves an orphan blob,
// never a dangling descriptor.
func (s *Service) DeleteDocument(ctx context.Context, patientID, docID string) error {
	doc, err := s.findDocument(ctx, patientID, docID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveDocument(ctx, patientID, docID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.Handle); err != nil {
		log.Warn().Err(err).Str("handle", string(doc.Handle)).Msg("failed to delete blob for removed document")
	}
	return nil
}

func (s *Service) findDocument(ctx context.Context, patientID, docID string) (*Document, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for i := range p.Documents {
		if p.Documents[i].ID == docID {
			return &p.Documents[i], nil
		}
	}
	return nil, ErrNotFound
}

// UploadPhoto replaces the patient's photo. The superseded blob is deleted
// after the record points at the new one.
func (s *Service) UploadPhoto(ctx context.Context, patientID string, f Upload) (*Attachment, error) {
	return s.uploadProfile(ctx, patientID, f, "photo",
		func(p *Patient) *Attachment { return p.Photo }, s.repo.SetPhoto)
}

// UploadIDProof replaces the patient's ID proof.
func (s *Service) UploadIDProof(ctx context.Context, patientID string, f Upload) (*Attachment, error) {
	return s.uploadProfile(ctx, patientID, f, "idProof",
		func(p *Patient) *Attachment { return p.IDProof }, s.repo.SetIDProof)
}

func (s *Service) uploadProfile(
	ctx context.Context,
	patientID string,
	f Upload,
	tag string,
	current func(*Patient) *Attachment,
	set func(context.Context, string, *Attachment) error,
) (*Attachment, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	old := current(p)

	handle, err := s.blobs.Store(ctx, f.Content, blobstore.ObjectMeta{
		Name:        f.Name,
		ContentType: f.ContentType,
		Tags:        map[string]string{"patientId": patientID, "profile": tag},
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", f.Name, err)
	}

	att := &Attachment{
		Name:        f.Name,
		ContentType: f.ContentType,
		Handle:      handle,
		Size:        f.Size,
		UploadedAt:  time.Now().UTC(),
	}
	if err := set(ctx, patientID, att); err != nil {
		if derr := s.blobs.Delete(ctx, handle); derr != nil {
			log.Warn().Err(derr).Str("handle", string(handle)).Msg("failed to clean up blob after aborted profile upload")
		}
		return nil, err
	}

	if old != nil {
		if err := s.blobs.Delete(ctx, old.Handle); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			log.Warn().Err(err).Str("handle", string(old.Handle)).Msg("failed to delete superseded profile blob")
		}
	}
	return att, nil
}

// OpenPhoto streams the patient's photo.
func (s *Service) OpenPhoto(ctx context.Context, patientID string) (*Attachment, io.ReadCloser, error) {
	return s.openProfile(ctx, patientID, func(p *Patient) *Attachment { return p.Photo })
}

// OpenIDProof streams the patient's ID proof.
func (s *Service) OpenIDProof(ctx context.Context, patientID string) (*Attachment, io.ReadCloser, error) {
	return s.openProfile(ctx, patientID, func(p *Patient) *Attachment { return p.IDProof })
}

func (s *Service) openProfile(ctx context.Context, patientID string, current func(*Patient) *Attachment) (*Attachment, io.ReadCloser, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	att := current(p)
	if att == nil {
		return nil, nil, ErrNotFound
	}
	rc, err := s.blobs.Open(ctx, att.Handle)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", att.Name, err)
	}
	return att, rc, nil
}

// DeletePhoto removes the photo descriptor and its blob.
func (s *Service) DeletePhoto(ctx context.Context, patientID string) error {
	return s.deleteProfile(ctx, patientID, func(p *Patient) *Attachment { return p.Photo }, s.repo.SetPhoto)
}

// DeleteIDProof removes the ID proof descriptor and its blob.
func (s *Service) DeleteIDProof(ctx context.Context, patientID string) error {
	return s.deleteProfile(ctx, patientID, func(p *Patient) *Attachment { return p.IDProof }, s.repo.SetIDProof)
}

func (s *Service) deleteProfile(
	ctx context.Context,
	patientID string,
	current func(*Patient) *Attachment,
	set func(context.Context, string, *Attachment) error,
) error {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return err
	}
	att := current(p)
	if att == nil {
		return ErrNotFound
	}
	if err := set(ctx, patientID, nil); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, att.Handle); err != nil {
		log.Warn().Err(err).Str("handle", string(att.Handle)).Msg("failed to delete blob for removed attachment")
	}
	return nil
}
