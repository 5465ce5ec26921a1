package handlers

import (
	"errors"

	"insightpro/internal/apperror"
	"insightpro/internal/logging"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gofiber/fiber/v2"
)

// writeError renders err as {"message": ...} with the status of its error type.
// Causes of server-side failures are logged and never sent to the client.
func writeError(c *fiber.Ctx, logger log.Logger, err error) error {
	var appErr *apperror.AppError
	var fe *fiber.Error
	if !errors.As(err, &appErr) && errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	appErr = apperror.FromError(err)
	status := appErr.StatusCode()
	if status >= fiber.StatusInternalServerError {
		level.Error(logger).Log("msg", "request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(fiber.Map{"message": appErr.Public()})
}

// ErrorHandler renders errors returned by handlers and middleware, including
// fiber's own (unknown route, oversized body).
func ErrorHandler(logger log.Logger) fiber.ErrorHandler {
	logger = logging.OrNop(logger)
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, err)
	}
}

func invalidBody(err error) error {
	return apperror.NewValidationError("Invalid request body", err)
}
