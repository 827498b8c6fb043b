package middleware

import (
	"errors"

	"finquest/apperr"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
}

// ErrorResponse writes err in the standard envelope. Classified errors keep
// their message and details; anything else is logged and hidden behind a 500.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		var data interface{}
		if len(ae.Details) > 0 {
			data = ae.Details
		}
		return JsonResponse(c, ae.Status(), false, ae.Message, data)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonResponse(c, fe.Code, false, fe.Message, nil)
	}

	utils.Log.Errorw("unhandled error", "path", c.Path(), "method", c.Method(), "error", err)
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error", nil)
}
