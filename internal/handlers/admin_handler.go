package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Services.Admin.ListDoctors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Services.Admin.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.Services.Admin.ListAppointments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

// ApproveDoctor lets a pending doctor log in.
func (h *Handler) ApproveDoctor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.Services.Admin.ApproveDoctor(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
