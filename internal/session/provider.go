package session

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// StoreProvider resolves the persisted store and revocation channel for a
// context group (the set of browsing contexts sharing one persisted store),
// binding a view attributed to one browsing context.
type StoreProvider interface {
	ForContext(group, contextID string) Store
	ChannelFor(group string) RevocationChannel
}

// RedisStoreProvider backs context groups with Redis hashes and pub/sub
// topics, the production arrangement where contexts span processes.
type RedisStoreProvider struct {
	client      redis.UniversalClient
	keyPrefix   string
	channelBase string
}

// NewRedisStoreProvider creates a provider rooted at the given key prefix
// and pub/sub topic base.
func NewRedisStoreProvider(client redis.UniversalClient, keyPrefix, channelBase string) *RedisStoreProvider {
	return &RedisStoreProvider{client: client, keyPrefix: keyPrefix, channelBase: channelBase}
}

// ForContext binds a store view for one browsing context of the group.
func (p *RedisStoreProvider) ForContext(group, contextID string) Store {
	return NewRedisStore(p.client, p.keyPrefix+group, p.ChannelFor(group), contextID)
}

// ChannelFor returns the group's revocation topic.
func (p *RedisStoreProvider) ChannelFor(group string) RevocationChannel {
	return NewRedisChannel(p.client, p.channelBase+":"+group)
}

// MemoryStoreProvider keeps every context group in process memory. Used by
// tests and by single-process deployments without Redis.
type MemoryStoreProvider struct {
	mu     sync.Mutex
	hubs   map[string]*Hub
	stores map[string]*MemoryStore
}

// NewMemoryStoreProvider creates an empty provider.
func NewMemoryStoreProvider() *MemoryStoreProvider {
	return &MemoryStoreProvider{
		hubs:   make(map[string]*Hub),
		stores: make(map[string]*MemoryStore),
	}
}

// ForContext binds a store view for one browsing context of the group.
func (p *MemoryStoreProvider) ForContext(group, contextID string) Store {
	return p.storeFor(group).ForContext(contextID)
}

// ChannelFor returns the group's in-process hub.
func (p *MemoryStoreProvider) ChannelFor(group string) RevocationChannel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hubLocked(group)
}

// StoreFor exposes the group's raw persisted store, letting tests seed
// partial field states.
func (p *MemoryStoreProvider) StoreFor(group string) *MemoryStore {
	return p.storeFor(group)
}

func (p *MemoryStoreProvider) storeFor(group string) *MemoryStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.stores[group]
	if !ok {
		store = NewMemoryStore(p.hubLocked(group))
		p.stores[group] = store
	}
	return store
}

func (p *MemoryStoreProvider) hubLocked(group string) *Hub {
	hub, ok := p.hubs[group]
	if !ok {
		hub = NewHub()
		p.hubs[group] = hub
	}
	return hub
}
