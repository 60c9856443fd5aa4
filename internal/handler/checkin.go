package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gympoint/internal/checkin"
)

// ListCheckins returns the student's 20 newest check-ins, newest first.
// Requires an active enrollment.
func (h *Handler) ListCheckins(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	list, err := h.checkins.List(c.Request.Context(), id)
	if err != nil {
		h.domainError(c, err)
		return
	}
	if list == nil {
		list = []checkin.Checkin{}
	}
	c.JSON(http.StatusOK, list)
}

// CreateCheckin records a check-in when the eligibility policy allows it.
func (h *Handler) CreateCheckin(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	ck, err := h.checkins.Create(c.Request.Context(), id)
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ck)
}
