package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

// parseBody accepts an empty body as the zero value.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		slog.Info(err.Error())
		return &service.ValidationError{Message: "Invalid request body"}
	}
	return nil
}

func writeError(c *fiber.Ctx, err error) error {
	var (
		validation *service.ValidationError
		unauth     *service.UnauthorizedError
		notFound   *service.NotFoundError
		selection  *service.SelectionRequiredError
		compliance *service.ComplianceError
		upstream   *service.ExternalServiceError
	)

	switch {
	case errors.As(err, &selection):
		return c.Status(fiber.StatusConflict).JSON(transfer.SelectionRequiredResponse{
			Error:             selection.Error(),
			SelectionRequired: true,
			State:             selection.State,
			Pages:             selection.Pages,
		})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Message})
	case errors.As(err, &unauth):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": unauth.Message})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.As(err, &compliance):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      compliance.Error(),
			"violations": compliance.Violations,
			"caption":    compliance.Caption,
		})
	case errors.As(err, &upstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": upstream.Error()})
	}

	slog.Error("request failed", "path", c.Path(), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
