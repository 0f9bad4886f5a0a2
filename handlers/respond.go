package handlers

import (
	"errors"
	"strconv"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/logger"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrQualityRejected):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrStockExhausted), errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": msg, "cause": err.Error()}

	var rejected *services.QualityRejectedError
	if errors.As(err, &rejected) {
		body["audit"] = rejected.Audit
		body["threshold"] = rejected.Threshold
		body["audit_unavailable"] = rejected.AuditUnavailable
	}
	if status == fiber.StatusInternalServerError {
		logger.Errorf("[HTTP] %s %s: %s: %v", c.Method(), c.Path(), msg, err)
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// pagination reads ?page= and ?size= (default 1 and 20, size capped at 100).
func pagination(c *fiber.Ctx) (limit, offset int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
