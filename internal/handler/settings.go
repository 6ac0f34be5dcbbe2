package handler

import (
	"errors"
	"strings"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/model"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	settingsSvc *service.SettingsService
	ingestSvc   *service.IngestService
	perms       *service.PermissionService
}

func NewSettingsHandler(settingsSvc *service.SettingsService, ingestSvc *service.IngestService, perms *service.PermissionService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc, ingestSvc: ingestSvc, perms: perms}
}

// Get returns the stored settings, with the permission state of the
// configured origin, so the options form can pre-fill itself.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settingsSvc.Get(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to read settings"})
	}

	if settings == nil {
		return c.JSON(fiber.Map{
			"settings":         nil,
			"defaultAuthor":    model.DefaultAuthorName,
			"originPermission": false,
		})
	}

	granted, err := h.perms.HasAPIHostPermission(c.Context(), settings.APIURL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to read permission state"})
	}

	masked := *settings
	masked.IngestToken = maskToken(settings.IngestToken)
	return c.JSON(fiber.Map{
		"settings":         masked,
		"defaultAuthor":    model.DefaultAuthorName,
		"originPermission": granted,
	})
}

// maskToken keeps the last four characters so the options form can show
// which token is stored without ever echoing it back in full.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}

// Save validates, negotiates the origin permission and persists. A refused
// grant is a distinct outcome, not an internal error.
func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	var input model.Settings
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	granted, err := h.settingsSvc.Save(c.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to save settings"})
	}
	if !granted {
		return c.Status(403).JSON(fiber.Map{
			"ok":    false,
			"error": "Autorisation du domaine API refusée.",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "message": "Configuration sauvegardée."})
}

// Test probes the ingest endpoint with the submitted (not yet saved)
// configuration, after making sure its origin is granted.
func (h *SettingsHandler) Test(c *fiber.Ctx) error {
	var input model.Settings
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	normalized, err := h.settingsSvc.ResolveInput(c.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to validate settings"})
	}

	granted, err := h.perms.RequestAPIHostPermission(c.Context(), normalized.APIURL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to negotiate permission"})
	}
	if !granted {
		return c.Status(403).JSON(fiber.Map{
			"ok":    false,
			"error": "Permission réseau refusée pour ce domaine API.",
		})
	}

	return c.JSON(h.ingestSvc.TestConfig(c.Context(), normalized))
}
