package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type BookRequest struct {
	TimeSlotID string `json:"timeSlotId" binding:"required,objectid"`
}

// AvailableDoctors lists approved doctors with at least one open slot.
func (h *Handler) AvailableDoctors(c *gin.Context) {
	doctors, err := h.Services.Directory.AvailableDoctors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) PatientAppointments(c *gin.Context) {
	patientID, ok := currentUser(c)
	if !ok {
		return
	}
	appts, err := h.Services.Directory.PatientAppointments(c.Request.Context(), patientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *Handler) Book(c *gin.Context) {
	patientID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BookRequest
	if !h.bind(c, &req) {
		return
	}
	slotID, ok := parseID(c, req.TimeSlotID)
	if !ok {
		return
	}

	apt, err := h.Services.Booking.Book(c.Request.Context(), slotID, patientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	patientID, ok := currentUser(c)
	if !ok {
		return
	}
	aptID, ok := pathID(c, "id")
	if !ok {
		return
	}

	apt, err := h.Services.Booking.Cancel(c.Request.Context(), aptID, patientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

// DoctorTimeSlots lists the open slots of an approved doctor.
func (h *Handler) DoctorTimeSlots(c *gin.Context) {
	doctorID, ok := pathID(c, "doctorId")
	if !ok {
		return
	}
	slots, err := h.Services.Directory.ApprovedDoctorSlots(c.Request.Context(), doctorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
