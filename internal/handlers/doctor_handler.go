package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/services"
)

type ProfileRequest struct {
	Specialization string `json:"specialization" binding:"required,max=200"`
	Bio            string `json:"bio" binding:"max=2000"`
}

type TimeSlotRequest struct {
	Date      string `json:"date" binding:"required,ymd"`
	StartTime string `json:"startTime" binding:"required,clock"`
	EndTime   string `json:"endTime" binding:"required,clock"`
}

func (h *Handler) UpsertProfile(c *gin.Context) {
	doctorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if !h.bind(c, &req) {
		return
	}

	profile, err := h.Services.Directory.UpsertProfile(c.Request.Context(), doctorID, services.ProfileInput{
		Specialization: req.Specialization,
		Bio:            req.Bio,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	doctorID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.Services.Directory.Profile(c.Request.Context(), doctorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CreateTimeSlot publishes an open slot for the calling doctor.
func (h *Handler) CreateTimeSlot(c *gin.Context) {
	doctorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TimeSlotRequest
	if !h.bind(c, &req) {
		return
	}

	slot, err := h.Services.Directory.CreateTimeSlot(c.Request.Context(), doctorID, services.SlotInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// OpenTimeSlots lists the open slots of the doctor named by ?doctorId=.
func (h *Handler) OpenTimeSlots(c *gin.Context) {
	raw := c.Query("doctorId")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctorId is required"})
		return
	}
	doctorID, ok := parseID(c, raw)
	if !ok {
		return
	}

	slots, err := h.Services.Directory.OpenSlots(c.Request.Context(), doctorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) DoctorAppointments(c *gin.Context) {
	doctorID, ok := currentUser(c)
	if !ok {
		return
	}
	appts, err := h.Services.Directory.DoctorAppointments(c.Request.Context(), doctorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}
