package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSkipsOrigin(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	var gotA, gotB int
	cancelA, err := hub.Subscribe("tab-a", func() { gotA++ })
	require.NoError(t, err)
	defer cancelA()
	cancelB, err := hub.Subscribe("tab-b", func() { gotB++ })
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, hub.Publish(ctx, "tab-a"))

	assert.Zero(t, gotA, "origin context must not be re-signalled")
	assert.Equal(t, 1, gotB)
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	var got int
	cancel, err := hub.Subscribe("tab-b", func() { got++ })
	require.NoError(t, err)

	cancel()
	cancel() // repeated cancel is harmless

	require.NoError(t, hub.Publish(ctx, "tab-a"))
	assert.Zero(t, got)
}

func TestHub_MultipleSubscriptionsPerContext(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	var got int
	for i := 0; i < 3; i++ {
		cancel, err := hub.Subscribe("tab-b", func() { got++ })
		require.NoError(t, err)
		defer cancel()
	}

	require.NoError(t, hub.Publish(ctx, "tab-a"))
	assert.Equal(t, 3, got)
}
