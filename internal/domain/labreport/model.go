package labreport

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/careward/careward/internal/platform/docgen"
)

// LabReport is authored by the external doctor system. Nurses read reports
// and render them to PDF; result content is never edited here.
type LabReport struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID        string             `bson:"report_id" json:"reportId"`
	PatientID       string             `bson:"patient_id" json:"patientId"`
	OrderedBy       OrderedBy          `bson:"ordered_by" json:"orderedBy"`
	Date            time.Time          `bson:"date" json:"date"`
	TestName        string             `bson:"test_name" json:"testName"`
	TestType        string             `bson:"test_type,omitempty" json:"testType,omitempty"`
	Results         string             `bson:"results,omitempty" json:"results,omitempty"`
	NormalRange     string             `bson:"normal_range,omitempty" json:"normalRange,omitempty"`
	Interpretation  string             `bson:"interpretation,omitempty" json:"interpretation,omitempty"`
	Findings        string             `bson:"findings,omitempty" json:"findings,omitempty"`
	Recommendations string             `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	Instructions    string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Status          string             `bson:"status" json:"status"`
	UploadedBy      string             `bson:"uploaded_by,omitempty" json:"uploadedBy,omitempty"`
	UploadedAt      time.Time          `bson:"uploaded_at,omitempty" json:"uploadedAt,omitempty"`
	Document        *docgen.Locator    `bson:"document,omitempty" json:"document,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// OrderedBy is a weak reference to the ordering doctor.
type OrderedBy struct {
	Name        string `bson:"name" json:"name"`
	Designation string `bson:"designation,omitempty" json:"designation,omitempty"`
}
