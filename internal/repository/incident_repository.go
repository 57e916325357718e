package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/firewatch/incident-service/internal/domain"
)

// ErrNotFound is returned when a record does not exist in either backend.
var ErrNotFound = errors.New("record not found")

// IncidentRepository defines persistence access for fire-incident reports.
// Two interchangeable backends implement it: Postgres and Redis.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, limit int) ([]*domain.Incident, error)
	UpdateStatus(ctx context.Context, id string, status domain.IncidentStatus) (*domain.Incident, error)
	CountByStatus(ctx context.Context) (map[domain.IncidentStatus]int64, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository returns a Postgres-backed implementation.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (id, reporter_id, reporter_name, title, description, severity, status, latitude, longitude, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		incident.ID,
		incident.ReporterID,
		incident.ReporterName,
		incident.Title,
		incident.Description,
		incident.Severity,
		incident.Status,
		incident.Latitude,
		incident.Longitude,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	return err
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	const query = `
        SELECT id, reporter_id, reporter_name, title, description, severity, status, latitude, longitude, created_at, updated_at
        FROM incidents WHERE id=$1`

	incident, err := scanIncident(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return incident, nil
}

func (r *incidentRepository) List(ctx context.Context, limit int) ([]*domain.Incident, error) {
	const query = `
        SELECT id, reporter_id, reporter_name, title, description, severity, status, latitude, longitude, created_at, updated_at
        FROM incidents ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	incidents := make([]*domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

func (r *incidentRepository) UpdateStatus(ctx context.Context, id string, status domain.IncidentStatus) (*domain.Incident, error) {
	const query = `
        UPDATE incidents SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING id, reporter_id, reporter_name, title, description, severity, status, latitude, longitude, created_at, updated_at`

	incident, err := scanIncident(r.pool.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return incident, nil
}

func (r *incidentRepository) CountByStatus(ctx context.Context) (map[domain.IncidentStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM incidents GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.IncidentStatus]int64)
	for rows.Next() {
		var status domain.IncidentStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var incident domain.Incident
	if err := row.Scan(
		&incident.ID,
		&incident.ReporterID,
		&incident.ReporterName,
		&incident.Title,
		&incident.Description,
		&incident.Severity,
		&incident.Status,
		&incident.Latitude,
		&incident.Longitude,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}
