package dto

import (
	"time"

	"github.com/firewatch/incident-service/internal/domain"
)

// ReportIncidentRequest is the payload for submitting a report.
type ReportIncidentRequest struct {
	ReporterName string  `json:"reporter_name"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Severity     string  `json:"severity"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// UpdateIncidentStatusRequest is the payload for a lifecycle transition.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status"`
}

// IncidentResponse is the wire form of an incident.
type IncidentResponse struct {
	ID           string    `json:"id"`
	ReporterID   string    `json:"reporter_id"`
	ReporterName string    `json:"reporter_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewIncidentResponse maps a domain incident to its wire form.
func NewIncidentResponse(incident *domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:           incident.ID,
		ReporterID:   incident.ReporterID,
		ReporterName: incident.ReporterName,
		Title:        incident.Title,
		Description:  incident.Description,
		Severity:     string(incident.Severity),
		Status:       string(incident.Status),
		Latitude:     incident.Latitude,
		Longitude:    incident.Longitude,
		CreatedAt:    incident.CreatedAt,
		UpdatedAt:    incident.UpdatedAt,
	}
}

// NewIncidentListResponse maps a slice of incidents.
func NewIncidentListResponse(incidents []*domain.Incident) []IncidentResponse {
	out := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, NewIncidentResponse(incident))
	}
	return out
}
