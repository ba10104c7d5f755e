package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/middleware"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/observability"
	"github.com/noah-isme/drl-go-api/internal/service"
	"github.com/noah-isme/drl-go-api/internal/utils"
)

// QRHandler wires QR attendance HTTP routes.
type QRHandler struct {
	service   service.QRService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQRHandler constructs the handler.
func NewQRHandler(service service.QRService, validator *validator.Validate, logger zerolog.Logger) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "qr_handler").Logger(),
	}
}

// Register attaches the QR endpoints to the activities router group.
// Check-in is rate limited per principal to blunt token guessing.
func (h *QRHandler) Register(router fiber.Router) {
	router.Post("/:id/qr", middleware.RequireRole(models.RoleAdmin, models.RoleTeacher, models.RoleMonitor), h.issue)
	router.Post("/:id/check-in",
		middleware.RequireRole(models.RoleStudent, models.RoleMonitor),
		middleware.RateLimit("qr_checkin", 60, time.Minute),
		h.checkIn)
}

func (h *QRHandler) issue(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QRIssueRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	session, err := h.service.Issue(c.Context(), principal, activityID, time.Duration(payload.TTLMinutes)*time.Minute)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "qr session issued", session)
}

func (h *QRHandler) checkIn(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CheckInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	registration, err := h.service.CheckIn(c.Context(), activityID, payload.Token, principal.ID)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.AttendanceCheckins().Inc()

	return utils.SendSuccess(c, "attendance recorded", registration)
}

func (h *QRHandler) handleError(c *fiber.Ctx, err error) error {
	return sendDomainError(c, requestLogger(h.logger, c), err)
}
