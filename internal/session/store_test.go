package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch/incident-service/internal/domain"
)

func TestMemoryStore_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil).ForContext("tab-a")

	issued := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Write(ctx, domain.Credential{
		Token:    "tok-123",
		Role:     domain.RoleStation,
		IssuedAt: issued,
	}))

	cred, present, err := store.Read(ctx)
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "tok-123", cred.Token)
	assert.Equal(t, domain.RoleStation, cred.Role)
	assert.Equal(t, issued.UnixMilli(), cred.IssuedAt.UnixMilli())
}

func TestMemoryStore_PartialFieldsReadAsAbsent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"token only", map[string]string{FieldToken: "tok"}},
		{"missing token", map[string]string{FieldRole: "ADMIN", FieldLoginTime: "1724800000000"}},
		{"missing login time", map[string]string{FieldToken: "tok", FieldRole: "ADMIN"}},
		{"malformed login time", map[string]string{FieldToken: "tok", FieldRole: "ADMIN", FieldLoginTime: "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryStore(nil)
			for k, v := range tt.fields {
				mem.SetRaw(k, v)
			}

			_, present, err := mem.ForContext("tab-a").Read(ctx)
			require.NoError(t, err)
			assert.False(t, present)
		})
	}
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil).ForContext("tab-a")

	require.NoError(t, store.Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleCitizen,
		IssuedAt: time.Now(),
	}))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, present, err := store.Read(ctx)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestMemoryStore_ClearPublishesOnlyWhenTokenPresent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	mem := NewMemoryStore(hub)

	var delivered int
	cancel, err := hub.Subscribe("tab-b", func() { delivered++ })
	require.NoError(t, err)
	defer cancel()

	// Clearing an already empty store must not signal siblings.
	require.NoError(t, mem.ForContext("tab-a").Clear(ctx))
	assert.Zero(t, delivered)

	require.NoError(t, mem.ForContext("tab-a").Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleCitizen,
		IssuedAt: time.Now(),
	}))
	require.NoError(t, mem.ForContext("tab-a").Clear(ctx))
	assert.Equal(t, 1, delivered)
}

func TestMemoryStore_ContextsShareFields(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore(nil)

	require.NoError(t, mem.ForContext("tab-a").Write(ctx, domain.Credential{
		Token:    "tok",
		Role:     domain.RoleAdmin,
		IssuedAt: time.Now(),
	}))

	cred, present, err := mem.ForContext("tab-b").Read(ctx)
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, domain.RoleAdmin, cred.Role)
}

func TestDecodeCredential(t *testing.T) {
	cred, ok := decodeCredential(map[string]string{
		FieldToken:     "tok",
		FieldRole:      "STATION",
		FieldLoginTime: "1724800000000",
	})
	require.True(t, ok)
	assert.Equal(t, domain.RoleStation, cred.Role)
	assert.Equal(t, int64(1724800000000), cred.IssuedAt.UnixMilli())

	_, ok = decodeCredential(map[string]string{})
	assert.False(t, ok)
}
