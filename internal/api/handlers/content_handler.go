package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type ContentHandler struct {
	cs   service.CaptionService
	is   service.ImageService
	gate quality.Gate
}

func NewContentHandler(cs service.CaptionService, is service.ImageService, gate quality.Gate) *ContentHandler {
	return &ContentHandler{cs: cs, is: is, gate: gate}
}

func (h *ContentHandler) GenerateCaption(c *fiber.Ctx) error {
	var req transfer.GenerateCaptionRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	draft, err := h.cs.Generate(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(transfer.GenerateCaptionResponse{
		Caption:       draft.Caption,
		Hashtags:      draft.Hashtags,
		PinnedComment: draft.PinnedComment,
	})
}

func (h *ContentHandler) GenerateImage(c *fiber.Ctx) error {
	var req transfer.GenerateImageRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.is.Generate(c.Context(), service.ImageInput{
		Caption:        req.Caption,
		TitleOverride:  req.KeyQuote,
		FilenamePrefix: req.FilenamePrefix,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(transfer.GenerateImageResponse{ImageURL: res.ImageURL, Template: res.Template})
}

// QualityGate answers 200 when the caption passes and 422 when it does not,
// with the gate result as the body either way.
func (h *ContentHandler) QualityGate(c *fiber.Ctx) error {
	var req transfer.QualityGateRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.Caption == "" {
		return writeError(c, &service.ValidationError{Message: "caption is required"})
	}

	res, err := h.gate.Check(c.Context(), quality.GateInput{
		Caption:         req.Caption,
		RequiredVocab:   req.RequiredVocab,
		AllowRegenerate: req.AllowRegen,
	})
	if err != nil {
		return writeError(c, err)
	}

	status := fiber.StatusOK
	if !res.Passed {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(res)
}
