package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PlatformHandler struct {
	s service.OAuthService
}

func NewPlatformHandler(s service.OAuthService) *PlatformHandler {
	return &PlatformHandler{s: s}
}

func (h *PlatformHandler) AuthStart(c *fiber.Ctx) error {
	var req transfer.AuthStartRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.s.Start(c.Context(), GetUserID(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(res)
}

func (h *PlatformHandler) AuthCallback(c *fiber.Ctx) error {
	reason := c.Query("error")
	if desc := c.Query("error_description"); reason != "" && desc != "" {
		reason = reason + ": " + desc
	}

	res, err := h.s.Callback(c.Context(), c.Query("code"), c.Query("state"), reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(res)
}

func (h *PlatformHandler) AuthComplete(c *fiber.Ctx) error {
	var req transfer.AuthCompleteRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.s.Complete(c.Context(), GetUserID(c), req.State, req.PageID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(res)
}

func (h *PlatformHandler) TokenRefresh(c *fiber.Ctx) error {
	var req transfer.TokenRefreshRequest
	if err := parseBody(c, &req); err != nil {
		return writeError(c, err)
	}

	results, err := h.s.Refresh(c.Context(), req.SocialAccountID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(transfer.TokenRefreshResponse{Success: true, Results: results})
}
