package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/firewatch/incident-service/internal/service"
)

// AdminHandler exposes the admin portal endpoints.
type AdminHandler struct {
	incidents *service.IncidentService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(incidents *service.IncidentService) *AdminHandler {
	return &AdminHandler{incidents: incidents}
}

// Overview handles GET /admin/overview.
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	counts, err := h.incidents.Overview(c.UserContext())
	if err != nil {
		return err
	}

	byStatus := fiber.Map{}
	var total int64
	for status, count := range counts {
		byStatus[string(status)] = count
		total += count
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"total":     total,
			"by_status": byStatus,
		},
	})
}
