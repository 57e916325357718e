package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/session"
)

func TestSessionService_LogoutClearsAndSignalsSiblings(t *testing.T) {
	ctx := context.Background()
	stores := session.NewMemoryStoreProvider()
	dispatcher := events.NewInMemoryDispatcher()
	captured := captureAll(dispatcher, events.EventSessionRevoked)
	svc := NewSessionService(stores, dispatcher)

	require.NoError(t, stores.ForContext("g1", "tab-a").Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleCitizen,
		IssuedAt: time.Now(),
	}))

	var siblingNotified, originNotified bool
	cancelB, err := stores.ChannelFor("g1").Subscribe("tab-b", func() { siblingNotified = true })
	require.NoError(t, err)
	defer cancelB()
	cancelA, err := stores.ChannelFor("g1").Subscribe("tab-a", func() { originNotified = true })
	require.NoError(t, err)
	defer cancelA()

	require.NoError(t, svc.Logout(ctx, "g1", "tab-a"))

	_, present, err := stores.ForContext("g1", "tab-a").Read(ctx)
	require.NoError(t, err)
	assert.False(t, present)
	assert.True(t, siblingNotified)
	assert.False(t, originNotified, "logging-out context must not be re-signalled")

	got := captured.All()
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].SubjectID)
}

func TestSessionService_LogoutOnEmptyStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stores := session.NewMemoryStoreProvider()
	dispatcher := events.NewInMemoryDispatcher()
	captured := captureAll(dispatcher, events.EventSessionRevoked)
	svc := NewSessionService(stores, dispatcher)

	require.NoError(t, svc.Logout(ctx, "g1", "tab-a"))
	require.NoError(t, svc.Logout(ctx, "g1", "tab-a"))

	// The session_revoked audit event still fires per logout request.
	assert.Len(t, captured.All(), 2)
}
