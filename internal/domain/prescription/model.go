package prescription

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/careward/careward/internal/platform/docgen"
)

// Prescription is authored by the external doctor system. The ward backend
// reads it and renders it to PDF; administration tracking fields are carried
// through untouched.
type Prescription struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrescriptionID       string             `bson:"prescription_id" json:"prescriptionId"`
	PatientID            string             `bson:"patient_id" json:"patientId"`
	Prescriber           Prescriber         `bson:"prescriber" json:"prescriber"`
	Date                 time.Time          `bson:"date" json:"date"`
	Diagnosis            string             `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
	ClinicalNotes        string             `bson:"clinical_notes,omitempty" json:"clinicalNotes,omitempty"`
	Medications          []Medication       `bson:"medications,omitempty" json:"medications,omitempty"`
	SpecialInstructions  string             `bson:"special_instructions,omitempty" json:"specialInstructions,omitempty"`
	FollowUp             string             `bson:"follow_up,omitempty" json:"followUp,omitempty"`
	Status               string             `bson:"status" json:"status"`
	AdministrationStatus string             `bson:"administration_status,omitempty" json:"administrationStatus,omitempty"`
	Document             *docgen.Locator    `bson:"document,omitempty" json:"document,omitempty"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Prescriber is a weak reference to the authoring doctor; the doctor record
// itself lives in the external system.
type Prescriber struct {
	Name           string `bson:"name" json:"name"`
	Designation    string `bson:"designation,omitempty" json:"designation,omitempty"`
	RegistrationNo string `bson:"registration_no,omitempty" json:"registrationNo,omitempty"`
}

// Medication is one ordered entry of a prescription.
type Medication struct {
	Medicine     string `bson:"medicine" json:"medicine"`
	Dosage       string `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Duration     string `bson:"duration,omitempty" json:"duration,omitempty"`
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
}
