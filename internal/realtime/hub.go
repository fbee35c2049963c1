package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa/shopsync-backend/internal/cart"
	"github.com/mfigueroa/shopsync-backend/pkg/auth"
	"github.com/mfigueroa/shopsync-backend/pkg/logger"
	"github.com/mfigueroa/shopsync-backend/pkg/metrics"
)

// TokenVerifier validates an access token and returns its typed claims.
type TokenVerifier interface {
	Verify(token string) (*auth.AccessTokenClaims, error)
}

// VerifierFunc adapts a bare function to TokenVerifier.
type VerifierFunc func(token string) (*auth.AccessTokenClaims, error)

func (f VerifierFunc) Verify(token string) (*auth.AccessTokenClaims, error) {
	return f(token)
}

// Hub is the connection registry: every live socket, grouped by verified
// identity once authenticated. Cart updates fan out to sibling connections
// of the same identity, never to the sender and never to other users.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	byUser map[uuid.UUID]map[string]*Conn

	verifier TokenVerifier
	log      *logger.Logger
	metrics  *metrics.RealtimeMetrics
	now      func() time.Time
}

// NewHub builds the registry. Metrics may be nil.
func NewHub(verifier TokenVerifier, log *logger.Logger, m *metrics.RealtimeMetrics) (*Hub, error) {
	if verifier == nil {
		return nil, fmt.Errorf("token verifier required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Hub{
		conns:    make(map[string]*Conn),
		byUser:   make(map[uuid.UUID]map[string]*Conn),
		verifier: verifier,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}, nil
}

func (h *Hub) attach(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	h.metrics.ConnOpened()
}

// detach removes the connection from the registry and its identity group.
// Safe to call more than once.
func (h *Hub) detach(c *Conn) {
	h.mu.Lock()
	_, present := h.conns[c.id]
	c.closed = true
	delete(h.conns, c.id)
	if c.userID != uuid.Nil {
		if group, ok := h.byUser[c.userID]; ok {
			delete(group, c.id)
			if len(group) == 0 {
				delete(h.byUser, c.userID)
			}
		}
	}
	h.mu.Unlock()
	if present {
		h.metrics.ConnClosed()
	}
}

// HandleMessage dispatches one inbound frame from a connection.
func (h *Hub) HandleMessage(ctx context.Context, c *Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.deliver(newEnvelope(TypeError, ErrorPayload{Message: "malformed message"}))
		return
	}

	switch env.Type {
	case TypeAuthenticate:
		h.authenticate(ctx, c, env.Payload)
	case TypeCartUpdate:
		h.relayCartUpdate(ctx, c, env.Payload)
	case TypePing:
		c.deliver(newEnvelope(TypePong, nil))
	default:
		c.deliver(newEnvelope(TypeError, ErrorPayload{Message: "unknown message type"}))
	}
}

func (h *Hub) authenticate(ctx context.Context, c *Conn, payload json.RawMessage) {
	var in AuthenticatePayload
	if err := json.Unmarshal(payload, &in); err != nil || in.Token == "" {
		c.deliver(newEnvelope(TypeAuthError, ErrorPayload{Message: "token required"}))
		return
	}

	claims, err := h.verifier.Verify(in.Token)
	if err != nil || claims.UserID == uuid.Nil {
		h.log.Warn(h.log.WithConnectionID(ctx, c.id), "websocket authentication rejected")
		c.deliver(newEnvelope(TypeAuthError, ErrorPayload{Message: "invalid token"}))
		return
	}

	h.mu.Lock()
	// a connection detached while the token was being verified must not
	// rejoin a group nobody will ever clean up
	if c.closed {
		h.mu.Unlock()
		return
	}
	// re-authentication moves the connection between identity groups
	if c.userID != uuid.Nil && c.userID != claims.UserID {
		if group, ok := h.byUser[c.userID]; ok {
			delete(group, c.id)
			if len(group) == 0 {
				delete(h.byUser, c.userID)
			}
		}
	}
	c.userID = claims.UserID
	c.authed = true
	group, ok := h.byUser[claims.UserID]
	if !ok {
		group = make(map[string]*Conn)
		h.byUser[claims.UserID] = group
	}
	group[c.id] = c
	h.mu.Unlock()

	h.log.Info(h.log.WithFields(ctx, map[string]any{
		"connection_id": c.id,
		"user_id":       claims.UserID.String(),
	}), "websocket authenticated")
	c.deliver(newEnvelope(TypeAuthenticated, AuthenticatedPayload{
		Identity:     claims.UserID.String(),
		ConnectionID: c.id,
		Timestamp:    h.now(),
	}))
}

func (h *Hub) relayCartUpdate(ctx context.Context, c *Conn, payload json.RawMessage) {
	if !c.authed {
		c.deliver(newEnvelope(TypeAuthError, ErrorPayload{Message: "authenticate first"}))
		return
	}

	var in CartUpdatePayload
	if err := json.Unmarshal(payload, &in); err != nil {
		c.deliver(newEnvelope(TypeError, ErrorPayload{Message: "malformed cart payload"}))
		return
	}
	lines, err := cart.ValidateLines(in.Cart)
	if err != nil {
		c.deliver(newEnvelope(TypeError, ErrorPayload{Message: "invalid cart items"}))
		return
	}

	out := newEnvelope(TypeCartUpdated, CartUpdatedPayload{
		Cart:               lines,
		Identity:           c.userID.String(),
		Timestamp:          h.now(),
		SourceConnectionID: c.id,
	})

	h.mu.RLock()
	siblings := make([]*Conn, 0, len(h.byUser[c.userID]))
	for id, sibling := range h.byUser[c.userID] {
		if id == c.id {
			continue
		}
		siblings = append(siblings, sibling)
	}
	h.mu.RUnlock()

	h.metrics.IncBroadcast(TypeCartUpdated)
	for _, sibling := range siblings {
		if !sibling.deliver(out) {
			h.metrics.IncDropped()
			h.log.Warn(h.log.WithConnectionID(ctx, sibling.id), "dropped cart update on full buffer")
		}
	}
}

// ConnCount reports live connections; used by readiness checks.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
