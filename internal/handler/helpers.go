package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drl-go-api/internal/middleware"
	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
	"github.com/noah-isme/drl-go-api/internal/service"
	"github.com/noah-isme/drl-go-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func principalFromContext(c *fiber.Ctx) (models.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return models.Principal{}, utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return principal, nil
}

// sendDomainError maps domain errors onto HTTP statuses. Conflicting state
// is 409, expired windows and lifecycle violations are 422, and token
// failures distinguish an expired session (410) from a wrong token (401).
func sendDomainError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	var transitionErr *models.IllegalTransitionError
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrRegistrationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrActivityDecided),
		errors.Is(err, repository.ErrCapacityExceeded):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &transitionErr):
		return utils.SendError(c, fiber.StatusConflict, transitionErr.Error())
	case errors.Is(err, service.ErrTokenExpired):
		return utils.SendError(c, fiber.StatusGone, err.Error())
	case errors.Is(err, service.ErrTokenMismatch):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrActivityStarted),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrNotApproved),
		errors.Is(err, service.ErrOutsideActivityWindow),
		errors.Is(err, models.ErrInvalidActivityWindow):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) zerolog.Logger {
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		return base.With().Str("correlation_id", correlation).Logger()
	}
	return base
}
