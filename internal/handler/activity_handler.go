package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drl-go-api/internal/dto"
	"github.com/noah-isme/drl-go-api/internal/middleware"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/service"
	"github.com/noah-isme/drl-go-api/internal/utils"
)

// ActivityHandler wires activity lifecycle HTTP routes.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints to the router group. Role middleware
// gates the coarse route shape; ownership and class scope stay in the service.
func (h *ActivityHandler) Register(router fiber.Router) {
	organizers := middleware.RequireRole(models.RoleTeacher, models.RoleMonitor, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", organizers, h.create)
	router.Post("/:id/approve", adminOnly, h.approve)
	router.Post("/:id/reject", adminOnly, h.reject)
	router.Post("/:id/cancel", h.cancel)
	router.Get("/:id/decisions", adminOnly, h.decisions)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var payload dto.ActivityListRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	activities, err := h.service.List(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activities retrieved", activities)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Create(c.Context(), principal, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) approve(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Approve(c.Context(), principal, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity approved", activity)
}

func (h *ActivityHandler) reject(c *fiber.Ctx) error {
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

	activity, err := h.service.Reject(c.Context(), principal, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity rejected", activity)
}

func (h *ActivityHandler) cancel(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Cancel(c.Context(), principal, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity cancelled", activity)
}

func (h *ActivityHandler) decisions(c *fiber.Ctx) error {
	principal, err := principalFromContext(c)
	if err != nil {
		return err
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionListRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	decisions, err := h.service.Decisions(c.Context(), principal, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "decision log retrieved", decisions)
}

func (h *ActivityHandler) handleError(c *fiber.Ctx, err error) error {
	return sendDomainError(c, requestLogger(h.logger, c), err)
}
