// Package services holds the request-level workflows behind the HTTP
// handlers. Every method returns *apperr.Error for caller-facing failures.
package services

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/store"
)

type Options struct {
	AllowAdminSignup bool
	Notifier         Notifier
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

type Services struct {
	Accounts  *AccountService
	Directory *DirectoryService
	Booking   *BookingService
	Admin     *AdminService
}

func New(st store.Store, tokens *auth.TokenManager, hasher auth.PasswordHasher, opts Options) *Services {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	now := func() time.Time { return time.Now().UTC() }

	return &Services{
		Accounts: &AccountService{
			users:            st.Users(),
			doctors:          st.Doctors(),
			tokens:           tokens,
			hasher:           hasher,
			allowAdminSignup: opts.AllowAdminSignup,
			log:              opts.Logger.With().Str("service", "accounts").Logger(),
			now:              now,
		},
		Directory: &DirectoryService{
			users:        st.Users(),
			doctors:      st.Doctors(),
			slots:        st.TimeSlots(),
			appointments: st.Appointments(),
			now:          now,
		},
		Booking: &BookingService{
			users:        st.Users(),
			slots:        st.TimeSlots(),
			appointments: st.Appointments(),
			notifier:     notifier,
			metrics:      opts.Metrics,
			log:          opts.Logger.With().Str("service", "booking").Logger(),
			now:          now,
		},
		Admin: &AdminService{
			users:        st.Users(),
			slots:        st.TimeSlots(),
			appointments: st.Appointments(),
		},
	}
}
