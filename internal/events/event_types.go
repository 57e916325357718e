package events

import (
	"time"

	"github.com/firewatch/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentReported      EventType = "incident_reported"
	EventIncidentStatusChanged EventType = "incident_status_changed"
	EventSessionRevoked        EventType = "session_revoked"
	EventSessionExpired        EventType = "session_expired"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role         domain.Role `json:"role,omitempty"`
	ContextGroup string      `json:"context_group,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IncidentReportedPayload payload.
type IncidentReportedPayload struct {
	Severity  domain.IncidentSeverity `json:"severity"`
	Title     string                  `json:"title"`
	Latitude  float64                 `json:"latitude"`
	Longitude float64                 `json:"longitude"`
}

// IncidentStatusChangedPayload payload.
type IncidentStatusChangedPayload struct {
	OldStatus domain.IncidentStatus `json:"old_status"`
	NewStatus domain.IncidentStatus `json:"new_status"`
}

// SessionRevokedPayload payload.
type SessionRevokedPayload struct {
	Reason string `json:"reason"`
}
