package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	DoctorID    primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	TimeSlotID  primitive.ObjectID `bson:"timeSlotId" json:"timeSlotId"`
	Status      AppointmentStatus  `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
	CancelledAt *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// AppointmentView is an appointment with its referenced documents resolved.
type AppointmentView struct {
	Appointment
	Patient  *UserSummary `json:"patient,omitempty"`
	Doctor   *UserSummary `json:"doctor,omitempty"`
	TimeSlot *TimeSlot    `json:"timeSlot,omitempty"`
}
