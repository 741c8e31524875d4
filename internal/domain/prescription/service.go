package prescription

import (
	"context"
	"fmt"
	"io"

	"github.com/careward/careward/internal/platform/docgen"
	"github.com/careward/careward/internal/platform/idgen"
)

// PatientInfo is the slice of the patient record a rendered document needs.
type PatientInfo struct {
	PatientID string
	Name      string
	Age       int
	Gender    string
}

// PatientSource resolves patient identity for rendering.
type PatientSource interface {
	Lookup(ctx context.Context, patientID string) (*PatientInfo, error)
}

// Service gives nurses read access to prescriptions and drives the PDF
// pipeline for them.
type Service struct {
	repo     Repository
	patients PatientSource
	pipeline *docgen.Pipeline
}

func NewService(repo Repository, patients PatientSource, pipeline *docgen.Pipeline) *Service {
	return &Service{repo: repo, patients: patients, pipeline: pipeline}
}

func (s *Service) Get(ctx context.Context, id string) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// GeneratePDF renders the prescription if no document exists yet and returns
// the locator. Calling it again without a regenerate returns the cached
// locator unchanged.
func (s *Service) GeneratePDF(ctx context.Context, id string) (*docgen.Locator, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Document != nil {
		return p.Document, nil
	}

	doc, err := s.buildDocument(ctx, p)
	if err != nil {
		return nil, err
	}
	loc, err := s.pipeline.Generate(ctx, idgen.KindPrescription, p.PatientID, *doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDocument(ctx, id, loc); err != nil {
		s.pipeline.Discard(ctx, loc)
		return nil, err
	}
	return loc, nil
}

// RegeneratePDF always renders anew, points the record at the fresh locator,
// and cleans up the superseded blob.
func (s *Service) RegeneratePDF(ctx context.Context, id string) (*docgen.Locator, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := s.buildDocument(ctx, p)
	if err != nil {
		return nil, err
	}
	loc, err := s.pipeline.Replace(ctx, idgen.KindPrescription, p.PatientID, p.Document, *doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDocument(ctx, id, loc); err != nil {
		s.pipeline.Discard(ctx, loc)
		return nil, err
	}
	return loc, nil
}

// FetchPDF streams the rendered document. A prescription without a document,
// or one whose blob has been removed, yields docgen.ErrDocumentMissing.
func (s *Service) FetchPDF(ctx context.Context, id string) (*docgen.Locator, io.ReadCloser, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.pipeline.Open(ctx, p.Document)
	if err != nil {
		return nil, nil, err
	}
	return p.Document, rc, nil
}

func (s *Service) buildDocument(ctx context.Context, p *Prescription) (*docgen.Document, error) {
	info, err := s.patients.Lookup(ctx, p.PatientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient %s: %w", p.PatientID, err)
	}

	prescriber := []string{"Dr. " + p.Prescriber.Name}
	if p.Prescriber.Designation != "" {
		prescriber = append(prescriber, p.Prescriber.Designation)
	}
	if p.Prescriber.RegistrationNo != "" {
		prescriber = append(prescriber, "Reg. No: "+p.Prescriber.RegistrationNo)
	}

	doc := docgen.Document{
		Title:      "Prescription",
		Prescriber: docgen.Identity{Lines: prescriber},
		Patient: docgen.Identity{Lines: []string{
			"Name: " + info.Name,
			"Patient ID: " + info.PatientID,
			fmt.Sprintf("Age / Gender: %d / %s", info.Age, info.Gender),
		}},
		FooterDate: p.Date,
	}

	if p.Diagnosis != "" {
		doc.Sections = append(doc.Sections, docgen.Section{Heading: "Diagnosis", Lines: []string{p.Diagnosis}})
	}
	if p.ClinicalNotes != "" {
		doc.Sections = append(doc.Sections, docgen.Section{Heading: "Clinical Notes", Lines: []string{p.ClinicalNotes}})
	}
	if len(p.Medications) > 0 {
		sec := docgen.Section{Heading: "Medications"}
		for _, m := range p.Medications {
			item := docgen.Item{Name: m.Medicine}
			if m.Dosage != "" {
				item.Details = append(item.Details, "Dosage: "+m.Dosage)
			}
			if m.Duration != "" {
				item.Details = append(item.Details, "Duration: "+m.Duration)
			}
			if m.Instructions != "" {
				item.Details = append(item.Details, m.Instructions)
			}
			sec.Items = append(sec.Items, item)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	if p.SpecialInstructions != "" {
		doc.Sections = append(doc.Sections, docgen.Section{Heading: "Special Instructions", Lines: []string{p.SpecialInstructions}})
	}
	if p.FollowUp != "" {
		doc.Sections = append(doc.Sections, docgen.Section{Heading: "Follow Up", Lines: []string{p.FollowUp}})
	}
	return &doc, nil
}
