package utils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/localmart/internal/validation"
)

// OK wraps data in the success envelope.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"ok": true, "data": data})
}

// Created wraps data in the success envelope with a 201 status.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": data})
}

// ErrorHandler renders every failure as the {ok:false, error:CODE} envelope.
// fiber.Error messages are treated as machine-readable codes; anything else
// is logged and reported as an opaque SERVER_ERROR.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":      false,
			"error":   "VALIDATION_ERROR",
			"details": verr.Fields,
		})
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).JSON(fiber.Map{"ok": false, "error": ferr.Message})
	}

	log.Printf("[%s %s] unhandled error: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "SERVER_ERROR"})
}
