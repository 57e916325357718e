package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishReachesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []Event
	d.Subscribe(EventIncidentReported, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})
	d.Subscribe(EventSessionRevoked, func(_ context.Context, e Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventIncidentReported, SubjectID: "i1"})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "i1", seen[0].SubjectID)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var called bool
	d.Subscribe(EventSessionRevoked, func(context.Context, Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventSessionRevoked, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionRevoked})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestDispatcher_PublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionExpired}))
}
