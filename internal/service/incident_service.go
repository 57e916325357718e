package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/repository"
	apperrors "github.com/firewatch/incident-service/pkg/util/errorutil"
)

// ReportInput carries the fields of a new fire-incident report.
type ReportInput struct {
	ReporterID   string
	ReporterName string
	Title        string
	Description  string
	Severity     domain.IncidentSeverity
	Latitude     float64
	Longitude    float64
}

// IncidentService coordinates the incident archive and emits domain events.
type IncidentService struct {
	incidents  repository.IncidentRepository
	dispatcher events.Dispatcher
}

// NewIncidentService builds the service.
func NewIncidentService(incidents repository.IncidentRepository, dispatcher events.Dispatcher) *IncidentService {
	return &IncidentService{incidents: incidents, dispatcher: dispatcher}
}

// Report records a new incident and publishes incident_reported.
func (s *IncidentService) Report(ctx context.Context, actor events.Actor, input ReportInput) (*domain.Incident, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !domain.ValidSeverity(input.Severity) {
		return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": string(input.Severity)})
	}

	now := time.Now()
	incident := &domain.Incident{
		ID:           uuid.NewString(),
		ReporterID:   input.ReporterID,
		ReporterName: input.ReporterName,
		Title:        input.Title,
		Description:  input.Description,
		Severity:     input.Severity,
		Status:       domain.IncidentStatusReported,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIncidentReported,
		SubjectID: incident.ID,
		Actor:     actor,
		Timestamp: now,
		Payload: events.IncidentReportedPayload{
			Severity:  incident.Severity,
			Title:     incident.Title,
			Latitude:  incident.Latitude,
			Longitude: incident.Longitude,
		},
	})
	return incident, nil
}

// Get loads a single incident.
func (s *IncidentService) Get(ctx context.Context, id string) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return incident, nil
}

// List returns incidents, newest first.
func (s *IncidentService) List(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	incidents, err := s.incidents.List(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return incidents, nil
}

// UpdateStatus transitions an incident's lifecycle state and publishes
// incident_status_changed.
func (s *IncidentService) UpdateStatus(ctx context.Context, actor events.Actor, id string, status domain.IncidentStatus) (*domain.Incident, error) {
	if !domain.ValidIncidentStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}

	current, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	oldStatus := current.Status

	updated, err := s.incidents.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIncidentStatusChanged,
		SubjectID: id,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload: events.IncidentStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return updated, nil
}

// Overview aggregates incident counts by lifecycle state.
func (s *IncidentService) Overview(ctx context.Context) (map[domain.IncidentStatus]int64, error) {
	counts, err := s.incidents.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

func (s *IncidentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
