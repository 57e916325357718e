package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/session"
)

// SessionService exposes the guard's fail-closed clear as the manual
// logout action. Credential issuance stays with the external login
// collaborator; this service only removes.
type SessionService struct {
	stores     session.StoreProvider
	dispatcher events.Dispatcher
}

// NewSessionService builds the service.
func NewSessionService(stores session.StoreProvider, dispatcher events.Dispatcher) *SessionService {
	return &SessionService{stores: stores, dispatcher: dispatcher}
}

// Logout clears the context group's persisted credential. Sibling browsing
// contexts observe the removal through the revocation channel; the calling
// context is not re-signalled.
func (s *SessionService) Logout(ctx context.Context, group, contextID string) error {
	store := s.stores.ForContext(group, contextID)
	if err := store.Clear(ctx); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSessionRevoked,
			SubjectID: group,
			Actor:     events.Actor{ContextGroup: group},
			Timestamp: time.Now(),
			Payload:   events.SessionRevokedPayload{Reason: string(session.ReasonLoggedOut)},
		})
	}
	return nil
}
