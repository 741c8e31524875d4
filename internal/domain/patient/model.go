package patient

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/careward/careward/internal/platform/blobstore"
)

// Patient is the ward's patient record. PatientID is the human-readable
// identifier assigned at registration (calendar date plus daily serial) and
// never changes; the Mongo ObjectID stays internal.
type Patient struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PatientID        string             `bson:"patient_id" json:"patientId"`
	Name             string             `bson:"name" json:"name"`
	Age              int                `bson:"age" json:"age"`
	Gender           string             `bson:"gender" json:"gender"`
	Contact          string             `bson:"contact,omitempty" json:"contact,omitempty"`
	EmergencyContact string             `bson:"emergency_contact,omitempty" json:"emergencyContact,omitempty"`
	Address          string             `bson:"address,omitempty" json:"address,omitempty"`
	MedicalHistory   []string           `bson:"medical_history,omitempty" json:"medicalHistory,omitempty"`
	Visits           []Visit            `bson:"visits,omitempty" json:"visits,omitempty"`
	Documents        []Document         `bson:"documents,omitempty" json:"documents,omitempty"`
	Photo            *Attachment        `bson:"photo,omitempty" json:"photo,omitempty"`
	IDProof          *Attachment        `bson:"id_proof,omitempty" json:"idProof,omitempty"`
	IsActive         bool               `bson:"is_active" json:"isActive"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Visit is one ward visit with vitals. BMI and its category are derived at
// recording time when both height and weight are present.
type Visit struct {
	ID             string    `bson:"id" json:"id"`
	Date           time.Time `bson:"date" json:"date"`
	WeightKg       float64   `bson:"weight_kg,omitempty" json:"weightKg,omitempty"`
	HeightCm       float64   `bson:"height_cm,omitempty" json:"heightCm,omitempty"`
	BloodPressure  string    `bson:"blood_pressure,omitempty" json:"bloodPressure,omitempty"`
	HeartRate      int       `bson:"heart_rate,omitempty" json:"heartRate,omitempty"`
	Temperature    float64   `bson:"temperature,omitempty" json:"temperature,omitempty"`
	ChiefComplaint string    `bson:"chief_complaint,omitempty" json:"chiefComplaint,omitempty"`
	BMI            float64   `bson:"bmi,omitempty" json:"bmi,omitempty"`
	BMICategory    string    `bson:"bmi_category,omitempty" json:"bmiCategory,omitempty"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedBy     string    `bson:"recorded_by,omitempty" json:"recordedBy,omitempty"`
}

// Document describes an uploaded attachment. The blob handle never leaves
// the server; clients address documents by their ID.
type Document struct {
	ID          string           `bson:"id" json:"id"`
	Name        string           `bson:"name" json:"name"`
	ContentType string           `bson:"content_type" json:"contentType"`
	Handle      blobstore.Handle `bson:"handle" json:"-"`
	Size        int64            `bson:"size" json:"size"`
	UploadedBy  string           `bson:"uploaded_by,omitempty" json:"uploadedBy,omitempty"`
	UploadedAt  time.Time        `bson:"uploaded_at" json:"uploadedAt"`
}

// Attachment describes a singular profile object (photo or ID proof).
type Attachment struct {
	Name        string           `bson:"name" json:"name"`
	ContentType string           `bson:"content_type" json:"contentType"`
	Handle      blobstore.Handle `bson:"handle" json:"-"`
	Size        int64            `bson:"size" json:"size"`
	UploadedAt  time.Time        `bson:"uploaded_at" json:"uploadedAt"`
}

// ComputeBMI derives the body mass index and its clinical category from
// weight in kilograms and height in centimeters. Zero inputs yield zero.
func ComputeBMI(weightKg, heightCm float64) (float64, string) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, ""
	}
	m := heightCm / 100
	bmi := weightKg / (m * m)

	var category string
	switch {
	case bmi < 18.5:
		category = "Underweight"
	case bmi < 25:
		category = "Normal"
	case bmi < 30:
		category = "Overweight"
	default:
		category = "Obese"
	}
	return bmi, category
}
