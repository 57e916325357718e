package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/firewatch/incident-service/internal/api/dto"
	"github.com/firewatch/incident-service/internal/auth"
	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/service"
)

// IncidentsHandler exposes the fire-incident report endpoints.
type IncidentsHandler struct {
	incidents *service.IncidentService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidents *service.IncidentService) *IncidentsHandler {
	return &IncidentsHandler{incidents: incidents}
}

// Report handles POST /incidents.
func (h *IncidentsHandler) Report(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.ReportIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Title == "" || req.Severity == "" {
		return fiber.NewError(http.StatusBadRequest, "title and severity required")
	}

	incident, err := h.incidents.Report(c.UserContext(), actorFrom(principal), service.ReportInput{
		ReporterID:   principal.ContextGroup,
		ReporterName: req.ReporterName,
		Title:        req.Title,
		Description:  req.Description,
		Severity:     domain.IncidentSeverity(req.Severity),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewIncidentResponse(incident),
	})
}

// List handles GET /incidents.
func (h *IncidentsHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	incidents, err := h.incidents.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewIncidentListResponse(incidents),
	})
}

// Get handles GET /incidents/:id.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	incident, err := h.incidents.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewIncidentResponse(incident),
	})
}

// UpdateStatus handles PATCH /incidents/:id/status.
func (h *IncidentsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.UpdateIncidentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Status == "" {
		return fiber.NewError(http.StatusBadRequest, "status required")
	}

	incident, err := h.incidents.UpdateStatus(c.UserContext(), actorFrom(principal), c.Params("id"), domain.IncidentStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewIncidentResponse(incident),
	})
}

func actorFrom(principal *auth.Principal) events.Actor {
	return events.Actor{
		Role:         principal.Role,
		ContextGroup: principal.ContextGroup,
	}
}
