package labreport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/careward/careward/internal/platform/blobstore"
	"github.com/careward/careward/internal/platform/docgen"
	"github.com/careward/careward/internal/platform/idgen"
)

type mockRepo struct {
	items map[string]*LabReport
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]*LabReport)}
}

func (m *mockRepo) Create(_ context.Context, rep *LabReport) error {
	if rep.ID.IsZero() {
		rep.ID = primitive.NewObjectID()
	}
	cp := *rep
	m.items[rep.ID.Hex()] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*LabReport, error) {
	rep, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*LabReport, int, error) {
	var out []*LabReport
	for _, rep := range m.items {
		if f.Status != "" && rep.Status != f.Status {
			continue
		}
		if f.TestType != "" && rep.TestType != f.TestType {
			continue
		}
		out = append(out, rep)
	}
	return page(out, limit, offset)
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*LabReport, int, error) {
	var out []*LabReport
	for _, rep := range m.items {
		if rep.PatientID == patientID {
			out = append(out, rep)
		}
	}
	return page(out, limit, offset)
}

func page(items []*LabReport, limit, offset int) ([]*LabReport, int, error) {
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total, nil
}

func (m *mockRepo) SetDocument(_ context.Context, id string, loc *docgen.Locator) error {
	rep, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	rep.Document = loc
	return nil
}

type mockPatients struct{}

func (mockPatients) Lookup(_ context.Context, patientID string) (*PatientInfo, error) {
	if patientID != "20240301001" {
		return nil, errors.New("patient not found")
	}
	return &PatientInfo{PatientID: patientID, Name: "J. Doe", Age: 42, Gender: "Female"}, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(docgen.Document) ([]byte, error) { return []byte("%PDF-stub"), nil }

func newTestService() (*Service, *mockRepo, *blobstore.MemoryStore) {
	repo := newMockRepo()
	blobs := blobstore.NewMemoryStore()
	pipeline := docgen.NewPipeline(blobs, idgen.New(idgen.NewMemoryCounters()), stubRenderer{})
	return NewService(repo, mockPatients{}, pipeline), repo, blobs
}

func seedReport(t *testing.T, repo *mockRepo) *LabReport {
	t.Helper()
	rep := &LabReport{
		ReportID:    "LR-42",
		PatientID:   "20240301001",
		OrderedBy:   OrderedBy{Name: "A. Rao", Designation: "Pathology"},
		Date:        time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		TestName:    "Complete Blood Count",
		TestType:    "Hematology",
		Results:     "WBC 6.2",
		NormalRange: "4.0-11.0",
		Status:      "completed",
	}
	if err := repo.Create(context.Background(), rep); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rep
}

func TestGeneratePDFUsesLabSequence(t *testing.T) {
	svc, repo, blobs := newTestService()
	ctx := context.Background()
	rep := seedReport(t, repo)

	loc, err := svc.GeneratePDF(ctx, rep.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	if !strings.HasPrefix(loc.FileName, "LABREP-20240301001-L001-") {
		t.Errorf("file name: %q", loc.FileName)
	}
	if blobs.Len() != 1 {
		t.Errorf("expected 1 blob, got %d", blobs.Len())
	}

	again, err := svc.GeneratePDF(ctx, rep.ID.Hex())
	if err != nil {
		t.Fatalf("second GeneratePDF: %v", err)
	}
	if again.Handle != loc.Handle {
		t.Error("repeat generate must return the cached locator")
	}
}

func TestSequencesIndependentAcrossReports(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	first := seedReport(t, repo)
	second := seedReport(t, repo)

	locA, err := svc.GeneratePDF(ctx, first.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	locB, err := svc.GeneratePDF(ctx, second.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	if !strings.Contains(locA.FileName, "-L001-") || !strings.Contains(locB.FileName, "-L002-") {
		t.Errorf("sequence should advance per patient: %q then %q", locA.FileName, locB.FileName)
	}
}

func TestRegenerateCleansUpOldBlob(t *testing.T) {
	svc, repo, blobs := newTestService()
	ctx := context.Background()
	rep := seedReport(t, repo)

	first, err := svc.GeneratePDF(ctx, rep.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	second, err := svc.RegeneratePDF(ctx, rep.ID.Hex())
	if err != nil {
		t.Fatalf("RegeneratePDF: %v", err)
	}
	if second.Handle == first.Handle {
		t.Error("regenerate must produce a fresh blob")
	}
	if blobs.Len() != 1 {
		t.Errorf("superseded blob should be deleted, store holds %d", blobs.Len())
	}
}

func TestFetchPDFStrict(t *testing.T) {
	svc, repo, blobs := newTestService()
	ctx := context.Background()
	rep := seedReport(t, repo)

	if _, _, err := svc.FetchPDF(ctx, rep.ID.Hex()); !errors.Is(err, docgen.ErrDocumentMissing) {
		t.Errorf("fetch before generate: got %v, want ErrDocumentMissing", err)
	}

	loc, err := svc.GeneratePDF(ctx, rep.ID.Hex())
	if err != nil {
		t.Fatalf("GeneratePDF: %v", err)
	}
	if err := blobs.Delete(ctx, loc.Handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.FetchPDF(ctx, rep.ID.Hex()); !errors.Is(err, docgen.ErrDocumentMissing) {
		t.Errorf("fetch with dangling locator: got %v, want ErrDocumentMissing", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	seedReport(t, repo)
	other := seedReport(t, repo)
	repo.items[other.ID.Hex()].Status = "pending"
	repo.items[other.ID.Hex()].TestType = "Biochemistry"

	completed, total, err := svc.List(ctx, ListFilter{Status: "completed"}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(completed) != 1 {
		t.Errorf("status filter: total=%d len=%d", total, len(completed))
	}

	biochem, total, err := svc.List(ctx, ListFilter{TestType: "Biochemistry"}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(biochem) != 1 {
		t.Errorf("test type filter: total=%d len=%d", total, len(biochem))
	}
}
