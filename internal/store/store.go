// Package store declares the persistence contracts the services depend on.
// Implementations live in mongostore (production) and memstore (local runs
// and tests).
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
)

var (
	// ErrNotFound is returned when no document matches the lookup or the
	// conditional update.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write would violate a unique index.
	ErrDuplicate = errors.New("store: duplicate key")
)

type UserFilter struct {
	Role     *models.Role
	Approved *bool
}

type AppointmentFilter struct {
	PatientID *primitive.ObjectID
	DoctorID  *primitive.ObjectID
}

// Users is the credential store.
type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.User, error)
	// Delete removes a user. Missing users are not an error.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Doctors holds doctor profiles, one per doctor user.
type Doctors interface {
	Create(ctx context.Context, p *models.DoctorProfile) error
	Upsert(ctx context.Context, p *models.DoctorProfile) (*models.DoctorProfile, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.DoctorProfile, error)
	FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DoctorProfile, error)
}

// TimeSlots holds published slots. Claim and Release are the only writers of
// the booked flag.
type TimeSlots interface {
	Create(ctx context.Context, s *models.TimeSlot) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TimeSlot, error)
	// ListOpen returns unbooked slots ordered by date and start time. A nil
	// doctorID lists every doctor's slots.
	ListOpen(ctx context.Context, doctorID *primitive.ObjectID) ([]models.TimeSlot, error)
	// Claim flips isBooked false->true in one conditional write and returns
	// the updated slot. ErrNotFound means no open slot had that id.
	Claim(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error)
	Release(ctx context.Context, id primitive.ObjectID) error
}

// Appointments is the appointment ledger.
type Appointments interface {
	// Create fails with ErrDuplicate when another booked appointment already
	// references the same slot.
	Create(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	// List returns matches newest first.
	List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	// Cancel moves a booked appointment to cancelled. ErrNotFound means it
	// was not in the booked state.
	Cancel(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	CountActiveForSlot(ctx context.Context, slotID primitive.ObjectID) (int64, error)
}

type Store interface {
	Users() Users
	Doctors() Doctors
	TimeSlots() TimeSlots
	Appointments() Appointments
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
