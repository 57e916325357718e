package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/firewatch/incident-service/internal/domain"
)

const (
	incidentKeyPrefix = "incident:"
	incidentIndexKey  = "incidents:by_created"
)

type incidentRedisRepository struct {
	client redis.UniversalClient
}

// NewIncidentRedisRepository returns a Redis-backed implementation, the
// alternate interchangeable archive backend.
func NewIncidentRedisRepository(client redis.UniversalClient) IncidentRepository {
	return &incidentRedisRepository{client: client}
}

func incidentKey(id string) string {
	return incidentKeyPrefix + id
}

func (r *incidentRedisRepository) Create(ctx context.Context, incident *domain.Incident) error {
	data, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("marshal incident: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, incidentKey(incident.ID), data, 0)
	pipe.ZAdd(ctx, incidentIndexKey, redis.Z{
		Score:  float64(incident.CreatedAt.UnixMilli()),
		Member: incident.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *incidentRedisRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	data, err := r.client.Get(ctx, incidentKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	var incident domain.Incident
	if err := json.Unmarshal([]byte(data), &incident); err != nil {
		return nil, fmt.Errorf("unmarshal incident: %w", err)
	}
	return &incident, nil
}

func (r *incidentRedisRepository) List(ctx context.Context, limit int) ([]*domain.Incident, error) {
	// limit <= 0 means the full index, newest first.
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.client.ZRevRange(ctx, incidentIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	incidents := make([]*domain.Incident, 0, len(ids))
	for _, id := range ids {
		incident, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// index entry outlived the record; skip it
				continue
			}
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, nil
}

func (r *incidentRedisRepository) UpdateStatus(ctx context.Context, id string, status domain.IncidentStatus) (*domain.Incident, error) {
	incident, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	incident.Status = status
	incident.UpdatedAt = time.Now()

	data, err := json.Marshal(incident)
	if err != nil {
		return nil, fmt.Errorf("marshal incident: %w", err)
	}
	if err := r.client.Set(ctx, incidentKey(id), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

func (r *incidentRedisRepository) CountByStatus(ctx context.Context) (map[domain.IncidentStatus]int64, error) {
	incidents, err := r.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.IncidentStatus]int64)
	for _, incident := range incidents {
		counts[incident.Status]++
	}
	return counts, nil
}
