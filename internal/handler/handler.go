// Package handler exposes the HTTP surface: students, check-ins, sessions,
// stats and health.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gympoint/internal/auth"
	"gympoint/internal/checkin"
	"gympoint/internal/stats"
	"gympoint/internal/store"
	"gympoint/internal/student"
)

// Validation failures answer with this exact message, matching the original
// service.
const msgValidationFails = "Validation fails"

// Handler holds the services behind the HTTP routes.
type Handler struct {
	students *student.Service
	checkins *checkin.Service
	creds    *auth.Credentials
	tracker  *stats.Tracker
	db       *store.DB
	redis    *store.Redis
	logger   zerolog.Logger

	jwtIssuer     string
	jwtSigningKey string
	accessTTL     time.Duration
}

// New wires the handler. creds, tracker, db and redis may be nil in tests.
func New(students *student.Service, checkins *checkin.Service, creds *auth.Credentials,
	tracker *stats.Tracker, db *store.DB, redis *store.Redis, logger zerolog.Logger,
	jwtIssuer, jwtSigningKey string, accessTTL time.Duration) *Handler {
	return &Handler{
		students:      students,
		checkins:      checkins,
		creds:         creds,
		tracker:       tracker,
		db:            db,
		redis:         redis,
		logger:        logger,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: jwtSigningKey,
		accessTTL:     accessTTL,
	}
}

// Healthz reports process and dependency health.
func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.redis.Healthy(c.Request.Context())
	dbHealthy := h.db != nil && h.db.Client != nil && h.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// StatsToday returns the running check-in total for the current day.
func (h *Handler) StatsToday(c *gin.Context) {
	if h.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats not configured"})
		return
	}
	now := time.Now()
	n, err := h.tracker.CountForDay(c.Request.Context(), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": now.Format("2006-01-02"), "checkins": n})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateSession authenticates the admin and issues a bearer token.
func (h *Handler) CreateSession(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFails})
		return
	}
	if !h.creds.Match(req.Email, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	token, err := auth.Issue(req.Email, h.jwtIssuer, h.jwtSigningKey, h.accessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":      req.Email,
		"token":      token.Value,
		"expires_at": token.ExpiresAt.Unix(),
	})
}

// studentID validates the :id path param: positive integer or nothing.
func studentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFails})
		return 0, false
	}
	return id, true
}

// domainError maps typed service denials to 400 responses with their
// contract message; anything else is a 500.
func (h *Handler) domainError(c *gin.Context, err error) {
	for _, known := range []error{
		checkin.ErrNotEnrolled,
		checkin.ErrAlreadyCheckedIn,
		checkin.ErrWeeklyLimit,
		student.ErrAlreadyExists,
		student.ErrEmailTaken,
		student.ErrNotFound,
	} {
		if errors.Is(err, known) {
			c.JSON(http.StatusBadRequest, gin.H{"error": known.Error()})
			return
		}
	}
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
