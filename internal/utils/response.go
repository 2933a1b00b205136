package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the common envelope for JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// SendDocument sends a rendered digest body as-is under the given MIME type,
// used for the non-JSON output formats.
func SendDocument(c *fiber.Ctx, contentType, body string) error {
	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).SendString(body)
}
