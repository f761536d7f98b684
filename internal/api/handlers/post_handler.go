package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PostHandler struct {
	s service.PublishService
}

func NewPostHandler(service service.PublishService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) PublishInstagram(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.s.Publish(c.Context(), req.PostID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(res)
}
