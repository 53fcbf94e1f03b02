package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/handlers"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/services"
	"github.com/harentsoaR/clinic-api/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := &config.Config{
		RequestTimeout: 5 * time.Second,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		CORSOrigins:    []string{"*"},
	}
	tokens, err := auth.NewTokenManager("router-secret", time.Hour)
	require.NoError(t, err)

	st := memstore.New()
	m := metrics.New("test")
	svc := services.New(st, tokens, auth.NewPasswordHasher(bcrypt.MinCost), services.Options{
		AllowAdminSignup: true,
		Metrics:          m,
		Logger:           zerolog.Nop(),
	})
	r := NewRouter(Deps{
		Config:  cfg,
		Handler: handlers.NewHandler(svc, st, zerolog.Nop()),
		Tokens:  tokens,
		Metrics: m,
		Log:     zerolog.Nop(),
	})
	return &client{t: t, router: r}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *client) register(name, email string, role models.Role) authResponse {
	c.t.Helper()
	var res authResponse
	code := c.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret-pass", "role": role,
	}, &res)
	require.Equal(c.t, http.StatusCreated, code)
	return res
}

func (c *client) login(email string) (authResponse, int) {
	c.t.Helper()
	var res authResponse
	code := c.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret-pass"}, &res)
	return res, code
}

func TestBookingFlow(t *testing.T) {
	c := newClient(t)

	doctor := c.register("Dr. A", "dra@clinic.test", models.RoleDoctor)
	assert.False(t, doctor.User.IsApproved)
	admin := c.register("Root", "root@clinic.test", models.RoleAdmin)
	patient := c.register("Pat", "pat@clinic.test", models.RolePatient)

	var errRes errorResponse
	_, code := c.login("dra@clinic.test")
	assert.Equal(t, http.StatusForbidden, code)

	var approved models.User
	code = c.do(http.MethodPut, "/api/admin/approve/"+doctor.User.ID.Hex(), admin.Token, nil, &approved)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, approved.IsApproved)

	doctorLogin, code := c.login("dra@clinic.test")
	require.Equal(t, http.StatusOK, code)
	doctorToken := doctorLogin.Token

	var slot models.TimeSlot
	code = c.do(http.MethodPost, "/api/doctor/timeslots", doctorToken, gin.H{
		"date": "2024-01-01", "startTime": "09:00", "endTime": "09:30",
	}, &slot)
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, slot.IsBooked)

	var doctors []models.DoctorListing
	code = c.do(http.MethodGet, "/api/patient/doctors", patient.Token, nil, &doctors)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. A", doctors[0].Name)

	var apt models.Appointment
	code = c.do(http.MethodPost, "/api/patient/book", patient.Token, gin.H{"timeSlotId": slot.ID.Hex()}, &apt)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, models.StatusBooked, apt.Status)

	code = c.do(http.MethodPost, "/api/patient/book", patient.Token, gin.H{"timeSlotId": slot.ID.Hex()}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Time slot already booked", errRes.Error)

	var doctorAppts []models.AppointmentView
	code = c.do(http.MethodGet, "/api/doctor/appointments", doctorToken, nil, &doctorAppts)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, doctorAppts, 1)
	assert.Equal(t, apt.ID, doctorAppts[0].ID)
	require.NotNil(t, doctorAppts[0].Patient)
	assert.Equal(t, "Pat", doctorAppts[0].Patient.Name)

	code = c.do(http.MethodGet, "/api/doctor/timeslots?doctorId="+doctor.User.ID.Hex(), patient.Token, nil, &errRes)
	assert.Equal(t, http.StatusNotFound, code)

	var cancelled models.Appointment
	code = c.do(http.MethodPut, "/api/patient/cancel/"+apt.ID.Hex(), patient.Token, nil, &cancelled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	code = c.do(http.MethodPut, "/api/patient/cancel/"+apt.ID.Hex(), patient.Token, nil, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Appointment already cancelled", errRes.Error)

	var open []models.TimeSlot
	code = c.do(http.MethodGet, "/api/doctor/timeslots?doctorId="+doctor.User.ID.Hex(), patient.Token, nil, &open)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, open, 1)
	assert.Equal(t, slot.ID, open[0].ID)

	code = c.do(http.MethodGet, "/api/patient/timeslots/"+doctor.User.ID.Hex(), patient.Token, nil, &open)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, open, 1)
}

func TestAuthRoutes(t *testing.T) {
	c := newClient(t)
	patient := c.register("Pat", "pat@clinic.test", models.RolePatient)
	assert.NotEmpty(t, patient.Token)
	assert.Equal(t, models.RolePatient, patient.User.Role)

	var errRes errorResponse
	code := c.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Again", "email": "pat@clinic.test", "password": "secret-pass",
	}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User already exists", errRes.Error)

	code = c.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@clinic.test", "password": "p"}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name is required", errRes.Error)

	code = c.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "X", "email": "x@clinic.test", "password": "p", "role": "nurse",
	}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid role", errRes.Error)

	code = c.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Multi", "email": "multi@clinic.test", "password": strings.Repeat("é", 72),
	}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Password is too long", errRes.Error)

	code = c.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "pat@clinic.test", "password": "nope"}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid credentials", errRes.Error)

	var me models.User
	code = c.do(http.MethodGet, "/api/auth/me", patient.Token, nil, &me)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pat@clinic.test", me.Email)

	code = c.do(http.MethodGet, "/api/auth/me", "", nil, &errRes)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRoleGuards(t *testing.T) {
	c := newClient(t)
	patient := c.register("Pat", "pat@clinic.test", models.RolePatient)
	admin := c.register("Root", "root@clinic.test", models.RoleAdmin)

	var errRes errorResponse
	for _, path := range []string{"/api/admin/users", "/api/admin/doctors", "/api/admin/appointments"} {
		assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, path, patient.Token, nil, &errRes), path)
		assert.Equal(t, "Access denied", errRes.Error)
	}
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/patient/doctors", admin.Token, nil, &errRes))
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/api/doctor/timeslots", patient.Token, gin.H{}, &errRes))

	var users []models.User
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/admin/users", admin.Token, nil, &users))
	assert.Len(t, users, 2)
}

func TestInvalidIDs(t *testing.T) {
	c := newClient(t)
	patient := c.register("Pat", "pat@clinic.test", models.RolePatient)
	admin := c.register("Root", "root@clinic.test", models.RoleAdmin)

	var errRes errorResponse
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/api/patient/cancel/xyz", patient.Token, nil, &errRes))
	assert.Equal(t, "Invalid id", errRes.Error)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/patient/book", patient.Token, gin.H{"timeSlotId": "xyz"}, &errRes))
	assert.Equal(t, "Invalid id", errRes.Error)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/api/admin/approve/xyz", admin.Token, nil, &errRes))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/doctor/timeslots", patient.Token, nil, &errRes))
	assert.Equal(t, "doctorId is required", errRes.Error)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPut, "/api/admin/approve/"+patient.User.ID.Hex(), admin.Token, nil, &errRes))
	assert.Equal(t, "Doctor not found", errRes.Error)
}

func TestSlotValidation(t *testing.T) {
	c := newClient(t)
	doctor := c.register("Dr. A", "dra@clinic.test", models.RoleDoctor)
	admin := c.register("Root", "root@clinic.test", models.RoleAdmin)
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/api/admin/approve/"+doctor.User.ID.Hex(), admin.Token, nil, nil))

	var errRes errorResponse
	code := c.do(http.MethodPost, "/api/doctor/timeslots", doctor.Token, gin.H{
		"date": "2024/01/01", "startTime": "09:00", "endTime": "09:30",
	}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid date, use YYYY-MM-DD", errRes.Error)

	code = c.do(http.MethodPost, "/api/doctor/timeslots", doctor.Token, gin.H{
		"date": "2024-01-01", "startTime": "10:00", "endTime": "09:30",
	}, &errRes)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "End time must be after start time", errRes.Error)
}

func TestOperationalEndpoints(t *testing.T) {
	c := newClient(t)

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	c.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
