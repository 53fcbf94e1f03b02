package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

// BookingService keeps a slot's booked flag in step with its appointment.
//
// The slot claim is a single conditional write (isBooked false -> true), so
// at most one concurrent Book call can win a slot. The appointment insert is
// additionally guarded by the one-active-booking-per-slot unique index.
type BookingService struct {
	users        store.Users
	slots        store.TimeSlots
	appointments store.Appointments
	notifier     Notifier
	metrics      *metrics.Metrics
	log          zerolog.Logger
	now          func() time.Time
}

// Book reserves an open slot for patientID.
func (s *BookingService) Book(ctx context.Context, slotID, patientID primitive.ObjectID) (apt *models.Appointment, err error) {
	defer func() { s.observe("book", err) }()

	slot, err := s.slots.Claim(ctx, slotID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Internal(err)
		}
		if _, ferr := s.slots.FindByID(ctx, slotID); ferr != nil {
			if errors.Is(ferr, store.ErrNotFound) {
				return nil, apperr.NotFound("Time slot not found")
			}
			return nil, apperr.Internal(ferr)
		}
		return nil, apperr.Conflict("Time slot already booked")
	}

	now := s.now()
	apt = &models.Appointment{
		ID:         primitive.NewObjectID(),
		PatientID:  patientID,
		DoctorID:   slot.DoctorID,
		TimeSlotID: slot.ID,
		Status:     models.StatusBooked,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		// A duplicate means another booked appointment holds the slot, so the
		// claim stays in place.
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Warn().Str("slotId", slot.ID.Hex()).Msg("open slot already had an active appointment")
			return nil, apperr.Conflict("Time slot already booked")
		}
		if rerr := s.slots.Release(ctx, slot.ID); rerr != nil {
			s.log.Error().Err(rerr).Str("slotId", slot.ID.Hex()).Msg("failed to release slot after insert error")
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info().
		Str("appointmentId", apt.ID.Hex()).
		Str("slotId", slot.ID.Hex()).
		Str("patientId", patientID.Hex()).
		Msg("appointment booked")
	s.notify(ctx, patientID, func(p *models.User) { s.notifier.AppointmentBooked(p, apt, slot) })
	return apt, nil
}

// Cancel cancels requesterID's own booked appointment and frees its slot
// unless another booked appointment still references it. An appointment that
// belongs to someone else is reported as not found.
func (s *BookingService) Cancel(ctx context.Context, appointmentID, requesterID primitive.ObjectID) (apt *models.Appointment, err error) {
	defer func() { s.observe("cancel", err) }()

	current, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Appointment not found")
		}
		return nil, apperr.Internal(err)
	}
	if current.PatientID != requesterID {
		return nil, apperr.NotFound("Appointment not found")
	}
	if current.Status == models.StatusCancelled {
		return nil, apperr.ErrAlreadyCancelled
	}

	apt, err = s.appointments.Cancel(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrAlreadyCancelled
		}
		return nil, apperr.Internal(err)
	}

	active, err := s.appointments.CountActiveForSlot(ctx, apt.TimeSlotID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if active == 0 {
		if err := s.slots.Release(ctx, apt.TimeSlotID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, apperr.Internal(err)
			}
			s.log.Warn().Str("slotId", apt.TimeSlotID.Hex()).Msg("cancelled appointment references a missing slot")
		}
	} else {
		s.log.Warn().
			Str("slotId", apt.TimeSlotID.Hex()).
			Int64("active", active).
			Msg("slot still held by another appointment, leaving it booked")
	}

	s.log.Info().Str("appointmentId", apt.ID.Hex()).Msg("appointment cancelled")
	if slot, ferr := s.slots.FindByID(ctx, apt.TimeSlotID); ferr == nil {
		s.notify(ctx, requesterID, func(p *models.User) { s.notifier.AppointmentCancelled(p, apt, slot) })
	}
	return apt, nil
}

func (s *BookingService) notify(ctx context.Context, patientID primitive.ObjectID, send func(*models.User)) {
	patient, err := s.users.FindByID(ctx, patientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patientId", patientID.Hex()).Msg("skipping notification, patient lookup failed")
		return
	}
	send(patient)
}

func (s *BookingService) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	s.metrics.ObserveBooking(operation, outcome)
}
