package utils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", userID, path)
}

// ErrorResponse creates a standardized error response. Details are only
// included for client-fixable errors; internal failures stay opaque and the
// caller is expected to log the underlying error server-side.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil && status < fiber.StatusInternalServerError {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}
