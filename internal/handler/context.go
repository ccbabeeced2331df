package handler

import (
	"errors"
	"log/slog"

	"go-vetpos/internal/middleware"
	"go-vetpos/internal/model"
	"go-vetpos/internal/service"
	"go-vetpos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actor builds the service principal from the user RequireAuth stored.
func actor(c *fiber.Ctx) service.Actor {
	user, ok := c.Locals(middleware.LocalUser).(*model.User)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: user.ID.String(), Name: user.Name, Role: user.Role}
}

func currentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(middleware.LocalUser).(*model.User)
	return user
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// optionalUUID parses an optional query value; empty means absent.
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrWrongPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrUserInactive):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error response for a service error. Storage details stay
// in the log.
func fail(c *fiber.Ctx, log *slog.Logger, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
