package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/domain"
)

// writeError traduce errores de dominio a status HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient), errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInvalidTransfer):
		return fiber.StatusBadRequest, "INVALID_TRANSFER"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrPermissionDenied):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrAlreadyValidated):
		return fiber.StatusConflict, "ALREADY_VALIDATED"
	case errors.Is(err, domain.ErrQuantityMismatch):
		return fiber.StatusUnprocessableEntity, "QUANTITY_MISMATCH"
	case errors.Is(err, domain.ErrConcurrentModificationRetryExhausted):
		return fiber.StatusServiceUnavailable, "CONCURRENT_MODIFICATION"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}
