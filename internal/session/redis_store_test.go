package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/session"
	"github.com/firewatch/incident-service/internal/testutil"
)

func TestRedisStore_Roundtrip(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	key := "test:cred:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	store := session.NewRedisStore(client, key, nil, "tab-a")

	_, present, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, present)

	issued := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.Write(ctx, domain.Credential{
		Token:    "tok-1",
		Role:     domain.RoleStation,
		IssuedAt: issued,
	}))

	cred, present, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "tok-1", cred.Token)
	assert.Equal(t, domain.RoleStation, cred.Role)
	assert.Equal(t, issued.UnixMilli(), cred.IssuedAt.UnixMilli())

	require.NoError(t, store.Clear(ctx))
	_, present, err = store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRedisStore_PartialHashReadsAsAbsent(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	key := "test:cred:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	require.NoError(t, client.HSet(ctx, key, session.FieldToken, "tok-only").Err())

	store := session.NewRedisStore(client, key, nil, "tab-a")
	_, present, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRedisChannel_ClearSignalsSiblingsOnly(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	topic := "test:revoked:" + uuid.NewString()
	key := "test:cred:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	channel := session.NewRedisChannel(client, topic)

	var originHits, siblingHits atomic.Int64
	cancelOrigin, err := channel.Subscribe("tab-a", func() { originHits.Add(1) })
	require.NoError(t, err)
	defer cancelOrigin()
	cancelSibling, err := channel.Subscribe("tab-b", func() { siblingHits.Add(1) })
	require.NoError(t, err)
	defer cancelSibling()

	store := session.NewRedisStore(client, key, channel, "tab-a")
	require.NoError(t, store.Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleAdmin,
		IssuedAt: time.Now(),
	}))
	require.NoError(t, store.Clear(ctx))

	assert.Eventually(t, func() bool {
		return siblingHits.Load() == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Zero(t, originHits.Load(), "origin context must not be re-signalled")
}

func TestRedisChannel_CancelStopsDelivery(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	topic := "test:revoked:" + uuid.NewString()
	channel := session.NewRedisChannel(client, topic)

	var hits atomic.Int64
	cancel, err := channel.Subscribe("tab-b", func() { hits.Add(1) })
	require.NoError(t, err)
	cancel()
	cancel()

	require.NoError(t, channel.Publish(ctx, "tab-a"))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, hits.Load())
}

func TestRedisStoreProvider_GroupsAreIsolated(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	prefix := "test:cred:" + uuid.NewString() + ":"
	provider := session.NewRedisStoreProvider(client, prefix, "test:revoked:"+uuid.NewString())
	t.Cleanup(func() {
		client.Del(context.Background(), prefix+"g1", prefix+"g2")
	})

	require.NoError(t, provider.ForContext("g1", "tab-a").Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleCitizen,
		IssuedAt: time.Now(),
	}))

	_, present, err := provider.ForContext("g2", "tab-a").Read(ctx)
	require.NoError(t, err)
	assert.False(t, present, "groups must not share credentials")

	_, present, err = provider.ForContext("g1", "tab-b").Read(ctx)
	require.NoError(t, err)
	assert.True(t, present, "contexts in one group share the credential")
}
