package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store/memstore"
)

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []primitive.ObjectID
	cancelled []primitive.ObjectID
}

func (n *recordingNotifier) AppointmentBooked(_ *models.User, apt *models.Appointment, _ *models.TimeSlot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, apt.ID)
}

func (n *recordingNotifier) AppointmentCancelled(_ *models.User, apt *models.Appointment, _ *models.TimeSlot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, apt.ID)
}

type fixture struct {
	svc      *Services
	store    *memstore.Store
	tokens   *auth.TokenManager
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	st := memstore.New()
	n := &recordingNotifier{}
	m := metrics.New("test")
	svc := New(st, tokens, auth.NewPasswordHasher(bcrypt.MinCost), Options{
		AllowAdminSignup: true,
		Notifier:         n,
		Metrics:          m,
		Logger:           zerolog.Nop(),
	})
	return &fixture{svc: svc, store: st, tokens: tokens, notifier: n, metrics: m}
}

func (f *fixture) register(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	res, err := f.svc.Accounts.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Password: "password123", Role: string(role),
	})
	require.NoError(t, err)
	return res.User
}

// approvedDoctor registers a doctor and approves them.
func (f *fixture) approvedDoctor(t *testing.T, name, email string) *models.User {
	t.Helper()
	d := f.register(t, name, email, models.RoleDoctor)
	approved, err := f.svc.Admin.ApproveDoctor(context.Background(), d.ID)
	require.NoError(t, err)
	return approved
}

func (f *fixture) slot(t *testing.T, doctorID primitive.ObjectID, start, end string) *models.TimeSlot {
	t.Helper()
	s, err := f.svc.Directory.CreateTimeSlot(context.Background(), doctorID, SlotInput{
		Date: "2024-01-01", StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	return s
}
