package handler

import (
	"github.com/SuperKn4cky/LiveChat-Extension/internal/resolver"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ActionHandler exposes the popup form and context-menu triggers over REST.
type ActionHandler struct {
	controller *service.Controller
}

func NewActionHandler(controller *service.Controller) *ActionHandler {
	return &ActionHandler{controller: controller}
}

type quickActionRequest struct {
	URL string `json:"url"`
}

type composeActionRequest struct {
	URL          string `json:"url"`
	Text         string `json:"text"`
	ForceRefresh bool   `json:"forceRefresh"`
	SaveToBoard  bool   `json:"saveToBoard"`
}

type contextActionRequest struct {
	Action  string `json:"action"`
	TabID   string `json:"tabId"`
	LinkURL string `json:"linkUrl"`
	SrcURL  string `json:"srcUrl"`
	PageURL string `json:"pageUrl"`
	TabURL  string `json:"tabUrl"`
}

func (h *ActionHandler) Quick(c *fiber.Ctx) error {
	var req quickActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "url is required"})
	}

	return c.JSON(h.controller.SendQuick(c.Context(), req.URL))
}

func (h *ActionHandler) Compose(c *fiber.Ctx) error {
	var req composeActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "url is required"})
	}

	return c.JSON(h.controller.SendCompose(c.Context(), req.URL, req.Text, req.ForceRefresh))
}

func (h *ActionHandler) Context(c *fiber.Ctx) error {
	var req contextActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Action == "" {
		return c.Status(400).JSON(fiber.Map{"error": "action is required"})
	}

	candidates := resolver.Candidates{
		LinkURL: req.LinkURL,
		SrcURL:  req.SrcURL,
		PageURL: req.PageURL,
		TabURL:  req.TabURL,
	}
	return c.JSON(h.controller.HandleContextAction(c.Context(), req.Action, candidates, req.TabID))
}

func (h *ActionHandler) ComposeState(c *fiber.Ctx) error {
	return c.JSON(h.controller.ComposeState(c.Context()))
}
