// ABOUTME: Shared HTTP helpers for JSON errors, request ids, and request metrics.
// ABOUTME: Every response carries an X-Request-ID header.
package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apiError(c, fiberErr.Code, fiberErr.Message)
	}
	return apiError(c, fiber.StatusInternalServerError, "internal error")
}

// RequestID returns the id assigned to the current request.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey{}).(string)
	return id
}

// observe tags each request with an id and records its outcome.
func (handler *Handler) observe(c *fiber.Ctx) error {
	start := time.Now()
	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(requestIDKey{}, id)
	c.Set(HeaderRequestID, id)

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
	}
	route := c.Route().Path
	elapsed := time.Since(start)

	handler.metrics.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	handler.metrics.Duration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())
	handler.logger.Debug("request", "id", id, "method", c.Method(), "path", c.Path(), "status", status, "elapsed", elapsed)
	return err
}
