package note

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Identity is the resolved identity attached to a live connection.
type Identity struct {
	UserID     uint64
	Username   string
	TenantCode string
}

// CredentialValidator resolves a raw bearer credential to an identity.
// Validation failures come back as an errors.Unauthorized AppError.
type CredentialValidator interface {
	Validate(ctx context.Context, credential string) (*Identity, error)
}

// Hub registers live connections into company-scoped broadcast groups.
// It is the session registry: every broadcast the protocol engine makes is
// scoped through it.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{tenants: make(map[string]map[*Client]struct{})}
}

// Register joins a client into its company group.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.tenants[c.identity.TenantCode]
	if !ok {
		group = make(map[*Client]struct{})
		h.tenants[c.identity.TenantCode] = group
	}
	group[c] = struct{}{}
}

// Deregister removes a client from its group. Idempotent; returns the
// identity that was attached, or nil if the client was not registered.
func (h *Hub) Deregister(c *Client) *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.tenants[c.identity.TenantCode]
	if !ok {
		return nil
	}
	if _, ok := group[c]; !ok {
		return nil
	}

	delete(group, c)
	if len(group) == 0 {
		delete(h.tenants, c.identity.TenantCode)
	}
	return &c.identity
}

// Broadcast sends an event to every connection in a company group, the
// originating client included.
func (h *Hub) Broadcast(tenantCode, event string, payload any) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("broadcast encode failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.tenants[tenantCode] {
		c.enqueue(raw)
	}
}
