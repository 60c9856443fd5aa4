package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"gympoint/internal/student"
)

type createStudentRequest struct {
	Name   string  `json:"name" binding:"required"`
	Email  string  `json:"email" binding:"required,email"`
	Age    int     `json:"age" binding:"required,gt=0"`
	Weight float64 `json:"weight" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

type updateStudentRequest struct {
	Name   *string  `json:"name" binding:"omitempty,min=1"`
	Email  *string  `json:"email" binding:"omitempty,email"`
	Age    *int     `json:"age" binding:"omitempty,gt=0"`
	Weight *float64 `json:"weight" binding:"omitempty,gt=0"`
	Height *float64 `json:"height" binding:"omitempty,gt=0"`
}

// CreateStudent registers a student. Weight and height are stored but not
// echoed, matching the original response shape.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFails})
		return
	}
	st, err := h.students.Create(c.Request.Context(), student.Profile{
		Name:   req.Name,
		Email:  req.Email,
		Age:    req.Age,
		Weight: req.Weight,
		Height: req.Height,
	})
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    st.ID,
		"name":  st.Name,
		"email": st.Email,
		"age":   st.Age,
	})
}

// UpdateStudent applies a partial patch and returns the full updated record.
func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An absent body is an empty patch, like the original's merge
		// of an empty object.
		if !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFails})
			return
		}
	}
	st, err := h.students.Update(c.Request.Context(), id, student.Patch{
		Name:   req.Name,
		Email:  req.Email,
		Age:    req.Age,
		Weight: req.Weight,
		Height: req.Height,
	})
	if err != nil {
		h.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
