// Package server assembles the gin engine: middleware chain, route groups
// and the operational endpoints.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/handlers"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

type Deps struct {
	Config  *config.Config
	Handler *handlers.Handler
	Tokens  *auth.TokenManager
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Log),
		middleware.Recovery(d.Log),
		d.Metrics.Middleware(),
		cors.New(corsConfig(d.Config)),
		middleware.Timeout(d.Config.RequestTimeout),
	)

	h := d.Handler
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	authn := middleware.Authenticate(d.Tokens)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(d.Config.RateLimitRPS),
		Burst: d.Config.RateLimitBurst,
	})
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", limiter.RateLimit(), h.Register)
		authRoutes.POST("/login", limiter.RateLimit(), h.Login)
		authRoutes.GET("/me", authn, h.Me)
	}

	doctor := api.Group("/doctor", authn)
	{
		doctor.GET("/timeslots", h.OpenTimeSlots)

		own := doctor.Group("", middleware.RequireRole(models.RoleDoctor))
		own.POST("/profile", h.UpsertProfile)
		own.GET("/profile", h.GetProfile)
		own.POST("/timeslots", h.CreateTimeSlot)
		own.GET("/appointments", h.DoctorAppointments)
	}

	patient := api.Group("/patient", authn, middleware.RequireRole(models.RolePatient))
	{
		patient.GET("/doctors", h.AvailableDoctors)
		patient.GET("/appointments", h.PatientAppointments)
		patient.GET("/timeslots/:doctorId", h.DoctorTimeSlots)
		patient.POST("/book", h.Book)
		patient.PUT("/cancel/:id", h.Cancel)
	}

	admin := api.Group("/admin", authn, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/doctors", h.ListDoctors)
		admin.GET("/users", h.ListUsers)
		admin.GET("/appointments", h.ListAppointments)
		admin.PUT("/approve/:id", h.ApproveDoctor)
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders: []string{middleware.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowsAnyOrigin() {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.CORSOrigins
	c.AllowCredentials = true
	return c
}
