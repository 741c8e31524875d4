package labreport

import (
	"context"
	"fmt"
	"io"

	"github.com/careward/careward/internal/platform/docgen"
	"github.com/careward/careward/internal/platform/idgen"
)

// PatientInfo is the slice of the patient record a rendered report needs.
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

// Service gives nurses read access to lab reports and drives the PDF
// pipeline for them.
type Service struct {
	repo     Repository
	patients PatientSource
	pipeline *docgen.Pipeline
}

func NewService(repo Repository, patients PatientSource, pipeline *docgen.Pipeline) *Service {
	return &Service{repo: repo, patients: patients, pipeline: pipeline}
}

func (s *Service) Get(ctx context.Context, id string) (*LabReport, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*LabReport, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*LabReport, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// GeneratePDF renders the report if no document exists yet and returns the
// locator. Repeat calls return the cached locator.
func (s *Service) GeneratePDF(ctx context.Context, id string) (*docgen.Locator, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Document != nil {
		return rep.Document, nil
	}

	doc, err := s.buildDocument(ctx, rep)
	if err != nil {
		return nil, err
	}
	loc, err := s.pipeline.Generate(ctx, idgen.KindLabReport, rep.PatientID, *doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDocument(ctx, id, loc); err != nil {
		s.pipeline.Discard(ctx, loc)
		return nil, err
	}
	return loc, nil
}

// RegeneratePDF always renders anew and cleans up the superseded blob.
func (s *Service) RegeneratePDF(ctx context.Context, id string) (*docgen.Locator, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := s.buildDocument(ctx, rep)
	if err != nil {
		return nil, err
	}
	loc, err := s.pipeline.Replace(ctx, idgen.KindLabReport, rep.PatientID, rep.Document, *doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDocument(ctx, id, loc); err != nil {
		s.pipeline.Discard(ctx, loc)
		return nil, err
	}
	return loc, nil
}

// FetchPDF streams the rendered report, strictly.
func (s *Service) FetchPDF(ctx context.Context, id string) (*docgen.Locator, io.ReadCloser, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.pipeline.Open(ctx, rep.Document)
	if err != nil {
		return nil, nil, err
	}
	return rep.Document, rc, nil
}

func (s *Service) buildDocument(ctx context.Context, rep *LabReport) (*docgen.Document, error) {
	info, err := s.patients.Lookup(ctx, rep.PatientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient %s: %w", rep.PatientID, err)
	}

	orderedBy := []string{"Dr. " + rep.OrderedBy.Name}
	if rep.OrderedBy.Designation != "" {
		orderedBy = append(orderedBy, rep.OrderedBy.Designation)
	}

	doc := docgen.Document{
		Title:      "Laboratory Report",
		Prescriber: docgen.Identity{Lines: orderedBy},
		Patient: docgen.Identity{Lines: []string{
			"Name: " + info.Name,
			"Patient ID: " + info.PatientID,
			fmt.Sprintf("Age / Gender: %d / %s", info.Age, info.Gender),
		}},
		FooterDate: rep.Date,
	}

	test := docgen.Section{Heading: "Test", Lines: []string{rep.TestName}}
	if rep.TestType != "" {
		test.Lines = append(test.Lines, "Type: "+rep.TestType)
	}
	doc.Sections = append(doc.Sections, test)

	for _, sec := range []struct{ heading, body string }{
		{"Results", rep.Results},
		{"Normal Range", rep.NormalRange},
		{"Interpretation", rep.Interpretation},
		{"Findings", rep.Findings},
		{"Recommendations", rep.Recommendations},
		{"Instructions", rep.Instructions},
	} {
		if sec.body != "" {
			doc.Sections = append(doc.Sections, docgen.Section{Heading: sec.heading, Lines: []string{sec.body}})
		}
	}
	return &doc, nil
}
