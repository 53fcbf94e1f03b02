package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

// DirectoryService serves doctor profiles, time slots and per-party
// appointment listings.
type DirectoryService struct {
	users        store.Users
	doctors      store.Doctors
	slots        store.TimeSlots
	appointments store.Appointments
	now          func() time.Time
}

type ProfileInput struct {
	Specialization string
	Bio            string
}

type SlotInput struct {
	Date      string
	StartTime string
	EndTime   string
}

func (s *DirectoryService) UpsertProfile(ctx context.Context, doctorID primitive.ObjectID, in ProfileInput) (*models.DoctorProfile, error) {
	spec := strings.TrimSpace(in.Specialization)
	if spec == "" {
		return nil, apperr.Validation("Specialization is required")
	}
	p, err := s.doctors.Upsert(ctx, &models.DoctorProfile{
		UserID:         doctorID,
		Specialization: spec,
		Bio:            strings.TrimSpace(in.Bio),
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *DirectoryService) Profile(ctx context.Context, doctorID primitive.ObjectID) (*models.DoctorProfile, error) {
	p, err := s.doctors.FindByUserID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Doctor profile not found")
		}
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// ParseSlot validates slot input and normalizes the clock times to HH:MM.
func ParseSlot(in SlotInput) (date time.Time, start, end string, err error) {
	date, perr := time.ParseInLocation(models.DateLayout, strings.TrimSpace(in.Date), time.UTC)
	if perr != nil {
		return time.Time{}, "", "", apperr.Validation("Invalid date, use YYYY-MM-DD")
	}
	st, serr := time.Parse(models.ClockLayout, strings.TrimSpace(in.StartTime))
	et, eerr := time.Parse(models.ClockLayout, strings.TrimSpace(in.EndTime))
	if serr != nil || eerr != nil {
		return time.Time{}, "", "", apperr.Validation("Invalid time, use HH:MM")
	}
	if !et.After(st) {
		return time.Time{}, "", "", apperr.Validation("End time must be after start time")
	}
	return date, st.Format(models.ClockLayout), et.Format(models.ClockLayout), nil
}

func (s *DirectoryService) CreateTimeSlot(ctx context.Context, doctorID primitive.ObjectID, in SlotInput) (*models.TimeSlot, error) {
	date, start, end, err := ParseSlot(in)
	if err != nil {
		return nil, err
	}
	slot := &models.TimeSlot{
		ID:        primitive.NewObjectID(),
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		CreatedAt: s.now(),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, apperr.Internal(err)
	}
	return slot, nil
}

// OpenSlots lists a doctor's unbooked slots, failing with NotFound when
// there are none.
func (s *DirectoryService) OpenSlots(ctx context.Context, doctorID primitive.ObjectID) ([]models.TimeSlot, error) {
	slots, err := s.slots.ListOpen(ctx, &doctorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(slots) == 0 {
		return nil, apperr.NotFound("No available time slots for this doctor")
	}
	return slots, nil
}

// ApprovedDoctorSlots lists open slots of an approved doctor. The list may be
// empty.
func (s *DirectoryService) ApprovedDoctorSlots(ctx context.Context, doctorID primitive.ObjectID) ([]models.TimeSlot, error) {
	doctor, err := s.users.FindByID(ctx, doctorID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	if doctor == nil || doctor.Role != models.RoleDoctor || !doctor.IsApproved {
		return nil, apperr.NotFound("Doctor not found or not approved")
	}

	slots, err := s.slots.ListOpen(ctx, &doctorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return slots, nil
}

// AvailableDoctors returns approved doctors that have at least one open
// slot, each merged with the owning user's name and email.
func (s *DirectoryService) AvailableDoctors(ctx context.Context) ([]models.DoctorListing, error) {
	role := models.RoleDoctor
	approved := true
	doctors, err := s.users.List(ctx, store.UserFilter{Role: &role, Approved: &approved})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]models.DoctorListing, 0)
	if len(doctors) == 0 {
		return out, nil
	}

	open, err := s.slots.ListOpen(ctx, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	withSlots := make(map[primitive.ObjectID]bool, len(open))
	for _, slot := range open {
		withSlots[slot.DoctorID] = true
	}

	byID := make(map[primitive.ObjectID]*models.User, len(doctors))
	ids := make([]primitive.ObjectID, 0, len(doctors))
	for i := range doctors {
		if withSlots[doctors[i].ID] {
			byID[doctors[i].ID] = &doctors[i]
			ids = append(ids, doctors[i].ID)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	profiles, err := s.doctors.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, p := range profiles {
		u := byID[p.UserID]
		out = append(out, models.DoctorListing{DoctorProfile: p, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (s *DirectoryService) DoctorAppointments(ctx context.Context, doctorID primitive.ObjectID) ([]models.AppointmentView, error) {
	return s.listAppointments(ctx, store.AppointmentFilter{DoctorID: &doctorID}, populateOpts{patient: true})
}

func (s *DirectoryService) PatientAppointments(ctx context.Context, patientID primitive.ObjectID) ([]models.AppointmentView, error) {
	return s.listAppointments(ctx, store.AppointmentFilter{PatientID: &patientID}, populateOpts{doctor: true})
}

func (s *DirectoryService) listAppointments(ctx context.Context, f store.AppointmentFilter, opts populateOpts) ([]models.AppointmentView, error) {
	appts, err := s.appointments.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	views, err := populate(ctx, s.users, s.slots, appts, opts)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return views, nil
}
