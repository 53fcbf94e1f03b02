package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/clinic-api/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the dependencies shared by every route. Route methods live
// in one file per route group.
type Handler struct {
	Services *services.Services
	Store    Pinger
	Log      zerolog.Logger
}

func NewHandler(svc *services.Services, store Pinger, log zerolog.Logger) *Handler {
	return &Handler{
		Services: svc,
		Store:    store,
		Log:      log.With().Str("component", "handlers").Logger(),
	}
}
