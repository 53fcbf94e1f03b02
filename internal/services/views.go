package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

type populateOpts struct {
	patient bool
	doctor  bool
}

// populate resolves the user and slot references of each appointment with
// one lookup per collection.
func populate(ctx context.Context, users store.Users, slots store.TimeSlots, appts []models.Appointment, opts populateOpts) ([]models.AppointmentView, error) {
	views := make([]models.AppointmentView, 0, len(appts))
	if len(appts) == 0 {
		return views, nil
	}

	var userIDs, slotIDs []primitive.ObjectID
	for _, a := range appts {
		if opts.patient {
			userIDs = append(userIDs, a.PatientID)
		}
		if opts.doctor {
			userIDs = append(userIDs, a.DoctorID)
		}
		slotIDs = append(slotIDs, a.TimeSlotID)
	}

	byUser := make(map[primitive.ObjectID]*models.UserSummary)
	if len(userIDs) > 0 {
		found, err := users.FindByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for i := range found {
			byUser[found[i].ID] = found[i].Summary()
		}
	}

	bySlot := make(map[primitive.ObjectID]*models.TimeSlot)
	found, err := slots.FindByIDs(ctx, slotIDs)
	if err != nil {
		return nil, err
	}
	for i := range found {
		bySlot[found[i].ID] = &found[i]
	}

	for _, a := range appts {
		v := models.AppointmentView{Appointment: a, TimeSlot: bySlot[a.TimeSlotID]}
		if opts.patient {
			v.Patient = byUser[a.PatientID]
		}
		if opts.doctor {
			v.Doctor = byUser[a.DoctorID]
		}
		views = append(views, v)
	}
	return views, nil
}
