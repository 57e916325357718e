package session

import (
	"context"
	"sync"

	"github.com/firewatch/incident-service/internal/domain"
)

// MemoryStore keeps the credential fields in process memory. One instance
// models one persisted store, shared by every browsing context attached to
// it; each context binds its own view via ForContext so clears are
// attributed to the right origin.
type MemoryStore struct {
	mu      sync.Mutex
	fields  map[string]string
	channel RevocationChannel
}

// NewMemoryStore creates an empty in-memory credential store. The channel
// may be nil when cross-context signalling is not needed.
func NewMemoryStore(channel RevocationChannel) *MemoryStore {
	return &MemoryStore{fields: make(map[string]string), channel: channel}
}

// ForContext returns a Store view of this persisted store attributed to the
// given browsing context.
func (s *MemoryStore) ForContext(contextID string) Store {
	return &memoryView{store: s, contextID: contextID}
}

// SetRaw writes a single persisted field verbatim. Intended for seeding
// partial or malformed states in tests.
func (s *MemoryStore) SetRaw(field, value string) {
	s.mu.Lock()
	s.fields[field] = value
	s.mu.Unlock()
}

func (s *MemoryStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

type memoryView struct {
	store     *MemoryStore
	contextID string
}

func (v *memoryView) Read(_ context.Context) (domain.Credential, bool, error) {
	cred, ok := decodeCredential(v.store.snapshot())
	return cred, ok, nil
}

func (v *memoryView) Write(_ context.Context, cred domain.Credential) error {
	v.store.mu.Lock()
	v.store.fields[FieldToken] = cred.Token
	v.store.fields[FieldRole] = string(cred.Role)
	v.store.fields[FieldLoginTime] = encodeLoginTime(cred.IssuedAt)
	v.store.mu.Unlock()
	return nil
}

func (v *memoryView) Clear(ctx context.Context) error {
	v.store.mu.Lock()
	_, hadToken := v.store.fields[FieldToken]
	v.store.fields = make(map[string]string)
	v.store.mu.Unlock()

	if hadToken && v.store.channel != nil {
		return v.store.channel.Publish(ctx, v.contextID)
	}
	return nil
}
