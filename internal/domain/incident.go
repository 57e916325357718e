package domain

import "time"

// IncidentSeverity grades the reported fire severity.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "LOW"
	SeverityModerate IncidentSeverity = "MODERATE"
	SeverityHigh     IncidentSeverity = "HIGH"
	SeverityCritical IncidentSeverity = "CRITICAL"
)

// IncidentStatus tracks the response lifecycle of a report.
type IncidentStatus string

const (
	IncidentStatusReported   IncidentStatus = "REPORTED"
	IncidentStatusDispatched IncidentStatus = "DISPATCHED"
	IncidentStatusContained  IncidentStatus = "CONTAINED"
	IncidentStatusResolved   IncidentStatus = "RESOLVED"
)

// ValidSeverity reports whether s is a known severity grade.
func ValidSeverity(s IncidentSeverity) bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidIncidentStatus reports whether s is a known lifecycle state.
func ValidIncidentStatus(s IncidentStatus) bool {
	switch s {
	case IncidentStatusReported, IncidentStatusDispatched, IncidentStatusContained, IncidentStatusResolved:
		return true
	}
	return false
}

// Incident is the domain model for a fire-incident report.
type Incident struct {
	ID           string
	ReporterID   string
	ReporterName string
	Title        string
	Description  string
	Severity     IncidentSeverity
	Status       IncidentStatus
	Latitude     float64
	Longitude    float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
