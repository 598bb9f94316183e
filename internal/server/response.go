package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondWithError sends a JSON error response.
func respondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// respondWithJSON sends a JSON success response.
func respondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

// formatValidationErrors flattens validator/v10 errors into messages a
// client can display.
func formatValidationErrors(err error) []string {
	var messages []string
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	for _, ve := range verrs {
		msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", ve.Field(), ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, ve.Param())
		}
		messages = append(messages, msg)
	}
	return messages
}
