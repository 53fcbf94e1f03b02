package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Placeholder profile written when a doctor registers.
const (
	DefaultSpecialization = "General Practitioner"
	DefaultBio            = "New doctor, profile not yet updated"
)

type DoctorProfile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Specialization string             `bson:"specialization" json:"specialization"`
	Bio            string             `bson:"bio" json:"bio"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DoctorListing is a profile merged with the owning user's name and email,
// as shown in the patient directory.
type DoctorListing struct {
	DoctorProfile
	Name  string `json:"name"`
	Email string `json:"email"`
}
