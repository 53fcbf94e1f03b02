package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	doctor := &models.User{Name: "Dr. A", Email: "dra@clinic.test", Role: models.RoleDoctor}
	patient := &models.User{Name: "Pat", Email: "pat@clinic.test", Role: models.RolePatient, IsApproved: true}
	require.NoError(t, s.Users().Create(ctx, doctor))
	require.NoError(t, s.Users().Create(ctx, patient))
	assert.False(t, doctor.ID.IsZero())

	err := s.Users().Create(ctx, &models.User{Email: "dra@clinic.test"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.Users().FindByEmail(ctx, "pat@clinic.test")
	require.NoError(t, err)
	assert.Equal(t, patient.ID, got.ID)

	_, err = s.Users().FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, store.ErrNotFound)

	role := models.RoleDoctor
	approved := true
	doctors, err := s.Users().List(ctx, store.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, doctors, 1)

	none, err := s.Users().List(ctx, store.UserFilter{Role: &role, Approved: &approved})
	require.NoError(t, err)
	assert.Empty(t, none)

	updated, err := s.Users().SetApproved(ctx, doctor.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsApproved)

	all, err := s.Users().List(ctx, store.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, doctor.ID, all[0].ID)
}

func TestDoctors_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := primitive.NewObjectID()

	require.NoError(t, s.Doctors().Create(ctx, &models.DoctorProfile{UserID: userID, Specialization: models.DefaultSpecialization}))
	assert.ErrorIs(t, s.Doctors().Create(ctx, &models.DoctorProfile{UserID: userID}), store.ErrDuplicate)

	before, err := s.Doctors().FindByUserID(ctx, userID)
	require.NoError(t, err)

	after, err := s.Doctors().Upsert(ctx, &models.DoctorProfile{UserID: userID, Specialization: "Cardiology", Bio: "Hearts"})
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Cardiology", after.Specialization)

	fresh, err := s.Doctors().Upsert(ctx, &models.DoctorProfile{UserID: primitive.NewObjectID(), Specialization: "ENT"})
	require.NoError(t, err)
	assert.False(t, fresh.ID.IsZero())

	list, err := s.Doctors().FindByUserIDs(ctx, []primitive.ObjectID{userID, fresh.UserID, primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTimeSlots_ClaimRelease(t *testing.T) {
	ctx := context.Background()
	s := New()
	doctorID := primitive.NewObjectID()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	late := &models.TimeSlot{DoctorID: doctorID, Date: day, StartTime: "10:00", EndTime: "10:30"}
	early := &models.TimeSlot{DoctorID: doctorID, Date: day, StartTime: "09:00", EndTime: "09:30"}
	other := &models.TimeSlot{DoctorID: primitive.NewObjectID(), Date: day, StartTime: "08:00", EndTime: "08:30"}
	for _, slot := range []*models.TimeSlot{late, early, other} {
		require.NoError(t, s.TimeSlots().Create(ctx, slot))
	}

	open, err := s.TimeSlots().ListOpen(ctx, &doctorID)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, early.ID, open[0].ID)

	all, err := s.TimeSlots().ListOpen(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	claimed, err := s.TimeSlots().Claim(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, claimed.IsBooked)

	_, err = s.TimeSlots().Claim(ctx, early.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.TimeSlots().Release(ctx, early.ID))
	_, err = s.TimeSlots().Claim(ctx, early.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, s.TimeSlots().Release(ctx, primitive.NewObjectID()), store.ErrNotFound)
}

func TestTimeSlots_ConcurrentClaim(t *testing.T) {
	ctx := context.Background()
	s := New()
	slot := &models.TimeSlot{DoctorID: primitive.NewObjectID(), StartTime: "09:00", EndTime: "09:30"}
	require.NoError(t, s.TimeSlots().Create(ctx, slot))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TimeSlots().Claim(ctx, slot.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestAppointments(t *testing.T) {
	ctx := context.Background()
	s := New()
	patientID := primitive.NewObjectID()
	slotID := primitive.NewObjectID()
	now := time.Now().UTC()

	older := &models.Appointment{PatientID: patientID, TimeSlotID: primitive.NewObjectID(), Status: models.StatusBooked, CreatedAt: now.Add(-time.Hour)}
	newer := &models.Appointment{PatientID: patientID, TimeSlotID: slotID, Status: models.StatusBooked, CreatedAt: now}
	require.NoError(t, s.Appointments().Create(ctx, older))
	require.NoError(t, s.Appointments().Create(ctx, newer))

	dup := &models.Appointment{PatientID: primitive.NewObjectID(), TimeSlotID: slotID, Status: models.StatusBooked}
	assert.ErrorIs(t, s.Appointments().Create(ctx, dup), store.ErrDuplicate)

	list, err := s.Appointments().List(ctx, store.AppointmentFilter{PatientID: &patientID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	n, err := s.Appointments().CountActiveForSlot(ctx, slotID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	cancelled, err := s.Appointments().Cancel(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = s.Appointments().Cancel(ctx, newer.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err = s.Appointments().CountActiveForSlot(ctx, slotID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Appointments().Create(ctx, dup))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	_, err := s.Users().FindByEmail(ctx, "x@clinic.test")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUsers_Delete(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &models.User{Name: "Pat", Email: "pat@clinic.test", Role: models.RolePatient}
	require.NoError(t, s.Users().Create(ctx, u))
	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, err := s.Users().FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, s.Users().Delete(ctx, u.ID))

	// The e-mail is free again.
	assert.NoError(t, s.Users().Create(ctx, &models.User{Email: "pat@clinic.test"}))
}
