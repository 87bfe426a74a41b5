package handlers

import (
	"errors"
	"fmt"

	"stockpos/internal/repositories"
	"stockpos/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError maps service errors onto status codes and a uniform JSON body.
func writeError(c *fiber.Ctx, err error) error {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.ProductNotFoundError
		stockErr      *services.InsufficientStockError
		partialErr    *services.PartialApplicationError
		backendErr    *services.BackendError
	)

	switch {
	case errors.As(err, &partialErr):
		status := fiber.StatusInternalServerError
		if errors.As(partialErr.Err, &stockErr) || errors.Is(partialErr.Err, repositories.ErrStockConflict) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"success":        false,
			"partial":        true,
			"message":        fmt.Sprintf("Sale stopped at line %d; %d line(s) were already applied", partialErr.FailedLine, partialErr.Committed),
			"error":          partialErr.Err.Error(),
			"failedLine":     partialErr.FailedLine,
			"productId":      partialErr.ProductID,
			"itemsProcessed": partialErr.Committed,
			"sales":          partialErr.Sales,
		})
	case errors.As(err, &validationErr):
		body := fiber.Map{"success": false, "message": validationErr.Message}
		if len(validationErr.Fields) > 0 {
			body["errors"] = validationErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   fmt.Sprintf("Product with ID %d not found", notFoundErr.ProductID),
			"productId": notFoundErr.ProductID,
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   fmt.Sprintf("Insufficient stock for product %s", stockErr.Name),
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrDuplicateCode):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.As(err, &backendErr):
		zap.L().Error("backend failure", zap.String("op", backendErr.Op), zap.Error(backendErr.Err))
		status := fiber.StatusInternalServerError
		if errors.Is(backendErr.Err, repositories.ErrStockConflict) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": "Backend unavailable",
			"error":   backendErr.Error(),
		})
	default:
		zap.L().Error("unexpected error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// parseID reads a positive numeric route parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return uint(id), nil
}
