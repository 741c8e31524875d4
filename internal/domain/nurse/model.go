package nurse

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Nurse is a ward staff account. NurseID is the human-readable staff number
// assigned once at signup; the password hash never leaves the server.
type Nurse struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NurseID      string             `bson:"nurse_id" json:"nurseId"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Department   string             `bson:"department" json:"department"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

var validRoles = map[string]bool{
	"Head Nurse":   true,
	"Staff Nurse":  true,
	"Junior Nurse": true,
}

var validDepartments = map[string]bool{
	"General Ward": true,
	"ICU":          true,
	"Emergency":    true,
	"Pediatrics":   true,
	"Maternity":    true,
	"Surgery":      true,
}
