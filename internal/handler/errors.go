package handler

import (
	"errors"

	"go-gearbox-mes/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// respondError maps the service error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with a generic body so internals never leak.
func respondError(c *fiber.Ctx, err error) error {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		return c.Status(422).JSON(fiber.Map{
			"error": validation.Error(),
			"field": validation.Field,
		})
	}
	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(404).JSON(fiber.Map{"error": notFound.Error()})
	}
	var shortage *apperr.ShortageError
	if errors.As(err, &shortage) {
		return c.Status(409).JSON(fiber.Map{
			"error":     "insufficient stock",
			"shortages": shortage.Items,
		})
	}
	var insufficient *apperr.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(409).JSON(fiber.Map{"error": insufficient.Error()})
	}
	var guard *apperr.GuardViolationError
	if errors.As(err, &guard) {
		return c.Status(409).JSON(fiber.Map{"error": guard.Error()})
	}
	var conflict *apperr.ConcurrencyConflictError
	if errors.As(err, &conflict) {
		return c.Status(409).JSON(fiber.Map{"error": conflict.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": "internal error"})
}

// actorFrom reads the authenticated user id set by the auth middleware.
func actorFrom(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "system"
}
