package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

type AdminService struct {
	users        store.Users
	slots        store.TimeSlots
	appointments store.Appointments
}

func (s *AdminService) ListDoctors(ctx context.Context) ([]models.User, error) {
	role := models.RoleDoctor
	users, err := s.users.List(ctx, store.UserFilter{Role: &role})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx, store.UserFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *AdminService) ListAppointments(ctx context.Context) ([]models.AppointmentView, error) {
	appts, err := s.appointments.List(ctx, store.AppointmentFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	views, err := populate(ctx, s.users, s.slots, appts, populateOpts{patient: true, doctor: true})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return views, nil
}

// ApproveDoctor flips a doctor's approval flag so they can log in.
func (s *AdminService) ApproveDoctor(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	if user == nil || user.Role != models.RoleDoctor {
		return nil, apperr.NotFound("Doctor not found")
	}

	updated, err := s.users.SetApproved(ctx, id, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, apperr.Internal(err)
	}
	return updated, nil
}
