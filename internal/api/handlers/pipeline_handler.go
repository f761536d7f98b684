package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PipelineHandler struct {
	s service.PipelineService
}

func NewPipelineHandler(s service.PipelineService) *PipelineHandler {
	return &PipelineHandler{s: s}
}

func (h *PipelineHandler) RunDailyPipeline(c *fiber.Ctx) error {
	var req transfer.RunPipelineRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.s.Run(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(res)
}
