package handler

import (
	"net/http"

	"github.com/PulseFit-Club/service-scheduling/internal/application"
	"github.com/PulseFit-Club/service-scheduling/internal/auth"
	"github.com/PulseFit-Club/service-scheduling/internal/middleware"
	"github.com/PulseFit-Club/service-scheduling/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service   *application.BookingService
	rateLimit gin.HandlerFunc
}

// NewBookingHandler creates a new BookingHandler. rateLimit gates the
// mutating endpoints (reserve, cancel).
func NewBookingHandler(service *application.BookingService, rateLimit gin.HandlerFunc) *BookingHandler {
	return &BookingHandler{service: service, rateLimit: rateLimit}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	sessions := r.Group("/api/v1/sessions")
	sessions.Use(authMW)
	{
		sessions.POST("/:id/bookings", middleware.RequireRole(auth.RoleClient, auth.RoleTrainer), h.rateLimit, h.ReserveBooking)
		sessions.GET("/:id/bookings", middleware.RequireRole(auth.RoleTrainer), h.GetSessionRoster)
	}

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.rateLimit, h.CancelBooking)
		bookings.POST("/:id/attendance", middleware.RequireRole(auth.RoleTrainer), h.MarkAttendance)
	}
}

// ReserveBooking handles POST /api/v1/sessions/:id/bookings. The reserving
// identity is always the authenticated caller.
func (h *BookingHandler) ReserveBooking(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	clientID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.Reserve(c.Request.Context(), sessionID, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSessionRoster handles GET /api/v1/sessions/:id/bookings.
func (h *BookingHandler) GetSessionRoster(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	result, err := h.service.GetSessionRoster(c.Request.Context(), sessionID, actorID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /api/v1/bookings (the caller's own bookings).
func (h *BookingHandler) ListBookings(c *gin.Context) {
	clientID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetClientBookings(c.Request.Context(), clientID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actorID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.Cancel(c.Request.Context(), bookingID, actorID, role, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// MarkAttendance handles POST /api/v1/bookings/:id/attendance.
func (h *BookingHandler) MarkAttendance(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetUserRole(c)

	var body struct {
		Attended *bool `json:"attended" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "attended is required")
		return
	}

	result, err := h.service.MarkAttendance(c.Request.Context(), bookingID, actorID, role, *body.Attended)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
