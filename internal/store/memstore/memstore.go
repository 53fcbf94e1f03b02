// Package memstore is an in-process store.Store. It enforces the same unique
// constraints as the Mongo indexes and is used for STORE_DRIVER=memory and in
// tests.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

type Store struct {
	mu           sync.Mutex
	users        map[primitive.ObjectID]models.User
	doctors      map[primitive.ObjectID]models.DoctorProfile // keyed by userId
	slots        map[primitive.ObjectID]models.TimeSlot
	appointments map[primitive.ObjectID]models.Appointment
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        make(map[primitive.ObjectID]models.User),
		doctors:      make(map[primitive.ObjectID]models.DoctorProfile),
		slots:        make(map[primitive.ObjectID]models.TimeSlot),
		appointments: make(map[primitive.ObjectID]models.Appointment),
	}
}

func (s *Store) Users() store.Users { return userRepo{s} }
func (s *Store) Doctors() store.Doctors { return doctorRepo{s} }
func (s *Store) TimeSlots() store.TimeSlots { return slotRepo{s} }
func (s *Store) Appointments() store.Appointments { return appointmentRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close(_ context.Context) error { return nil }

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	want := idSet(ids)
	return r.collect(ctx, func(u models.User) bool {
		_, ok := want[u.ID]
		return ok
	})
}

func (r userRepo) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	return r.collect(ctx, func(u models.User) bool {
		if f.Role != nil && u.Role != *f.Role {
			return false
		}
		if f.Approved != nil && u.IsApproved != *f.Approved {
			return false
		}
		return true
	})
}

func (r userRepo) collect(ctx context.Context, match func(models.User) bool) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.User, 0)
	for _, u := range r.s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

func (r userRepo) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.IsApproved = approved
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return &u, nil
}

func (r userRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

type doctorRepo struct{ s *Store }

func (r doctorRepo) Create(ctx context.Context, p *models.DoctorProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[p.UserID]; ok {
		return store.ErrDuplicate
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.s.doctors[p.UserID] = *p
	return nil
}

func (r doctorRepo) Upsert(ctx context.Context, p *models.DoctorProfile) (*models.DoctorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	cur, ok := r.s.doctors[p.UserID]
	if !ok {
		cur = models.DoctorProfile{ID: primitive.NewObjectID(), UserID: p.UserID, CreatedAt: now}
	}
	cur.Specialization = p.Specialization
	cur.Bio = p.Bio
	cur.UpdatedAt = now
	r.s.doctors[p.UserID] = cur
	return &cur, nil
}

func (r doctorRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.DoctorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.doctors[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (r doctorRepo) FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DoctorProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.DoctorProfile, 0, len(userIDs))
	for id := range idSet(userIDs) {
		if p, ok := r.s.doctors[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

type slotRepo struct{ s *Store }

func (r slotRepo) Create(ctx context.Context, slot *models.TimeSlot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if slot.ID.IsZero() {
		slot.ID = primitive.NewObjectID()
	}
	r.s.slots[slot.ID] = *slot
	return nil
}

func (r slotRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &slot, nil
}

func (r slotRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TimeSlot, error) {
	want := idSet(ids)
	return r.collect(ctx, func(slot models.TimeSlot) bool {
		_, ok := want[slot.ID]
		return ok
	})
}

func (r slotRepo) ListOpen(ctx context.Context, doctorID *primitive.ObjectID) ([]models.TimeSlot, error) {
	return r.collect(ctx, func(slot models.TimeSlot) bool {
		if slot.IsBooked {
			return false
		}
		return doctorID == nil || slot.DoctorID == *doctorID
	})
}

func (r slotRepo) collect(ctx context.Context, match func(models.TimeSlot) bool) ([]models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.TimeSlot, 0)
	for _, slot := range r.s.slots {
		if match(slot) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Before(&out[j]) {
			return true
		}
		if out[j].Before(&out[i]) {
			return false
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r slotRepo) Claim(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok || slot.IsBooked {
		return nil, store.ErrNotFound
	}
	slot.IsBooked = true
	r.s.slots[id] = slot
	return &slot, nil
}

func (r slotRepo) Release(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return store.ErrNotFound
	}
	slot.IsBooked = false
	r.s.slots[id] = slot
	return nil
}

type appointmentRepo struct{ s *Store }

func (r appointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.Status == models.StatusBooked {
		for _, existing := range r.s.appointments {
			if existing.TimeSlotID == a.TimeSlotID && existing.Status == models.StatusBooked {
				return store.ErrDuplicate
			}
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	r.s.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r appointmentRepo) List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Appointment, 0)
	for _, a := range r.s.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	return out, nil
}

func (r appointmentRepo) Cancel(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok || a.Status != models.StatusBooked {
		return nil, store.ErrNotFound
	}
	now := time.Now().UTC()
	a.Status = models.StatusCancelled
	a.UpdatedAt = now
	a.CancelledAt = &now
	r.s.appointments[id] = a
	return &a, nil
}

func (r appointmentRepo) CountActiveForSlot(ctx context.Context, slotID primitive.ObjectID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, a := range r.s.appointments {
		if a.TimeSlotID == slotID && a.Status == models.StatusBooked {
			n++
		}
	}
	return n, nil
}
