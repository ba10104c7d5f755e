package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/middleware"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/observability"
	"github.com/noah-isme/drl-go-api/internal/service"
	"github.com/noah-isme/drl-go-api/internal/utils"
)

// RegistrationHandler wires registration lifecycle HTTP routes.
type RegistrationHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service service.RegistrationService, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		logger:  logger.With().Str("component", "registration_handler").Logger(),
	}
}

// Register attaches registration endpoints to the router group. Decision
// routes are gated to staff roles up front; the finer ownership and class
// scope checks stay in the authority resolver.
func (h *RegistrationHandler) Register(router fiber.Router) {
	deciders := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher, models.RoleMonitor)

	router.Post("/bulk-approve", deciders, h.bulkApprove)
	router.Post("/:id/approve", deciders, h.approve)
	router.Post("/:id/reject", deciders, h.reject)
	router.Post("/:id/cancel", h.cancel)
	router.Post("/:id/attendance", deciders, h.markAttendance)
}

// RegisterActivityScoped attaches the activity-scoped registration endpoints.
// Only registrants may submit; the list stays open so visibility can resolve
// to not-found rather than forbidden.
func (h *RegistrationHandler) RegisterActivityScoped(router fiber.Router) {
	router.Post("/:id/registrations", middleware.RequireRole(models.RoleStudent, models.RoleMonitor), h.register)
	router.Get("/:id/registrations", h.list)
}

func (h *RegistrationHandler) register(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.Register(c.Context(), principal, activityID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration submitted", registration)
}

func (h *RegistrationHandler) list(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RegistrationListRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	registrations, err := h.service.ListByActivity(c.Context(), principal, activityID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "registrations retrieved", registrations)
}

func (h *RegistrationHandler) approve(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.Approve(c.Context(), principal, id)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Decisions().WithLabelValues("approve").Inc()

	return utils.SendSuccess(c, "registration approved", registration)
}

func (h *RegistrationHandler) reject(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RejectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	registration, err := h.service.Reject(c.Context(), principal, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Decisions().WithLabelValues("reject").Inc()

	return utils.SendSuccess(c, "registration rejected", registration)
}

func (h *RegistrationHandler) cancel(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.Cancel(c.Context(), principal, id)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Decisions().WithLabelValues("cancel").Inc()

	return utils.SendSuccess(c, "registration cancelled", registration)
}

func (h *RegistrationHandler) bulkApprove(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	var payload dto.BulkApproveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.BulkApprove(c.Context(), principal, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Decisions().WithLabelValues("approve").Add(float64(result.Approved))

	// The batch call itself succeeds even when every id failed; outcomes
	// are reported per id.
	return utils.SendSuccess(c, "bulk approval processed", result)
}

func (h *RegistrationHandler) markAttendance(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	registration, err := h.service.MarkAttendance(c.Context(), principal, id)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.AttendanceCheckins().Inc()

	return utils.SendSuccess(c, "attendance recorded", registration)
}

func (h *RegistrationHandler) handleError(c *fiber.Ctx, err error) error {
	return sendDomainError(c, requestLogger(h.logger, c), err)
}
