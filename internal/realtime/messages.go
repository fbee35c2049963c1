package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfigueroa/shopsync-backend/internal/cart"
)

// Message types exchanged over the socket. Clients send authenticate,
// cart_update, and ping; the server answers with the rest.
const (
	TypeAuthenticate  = "authenticate"
	TypeAuthenticated = "authenticated"
	TypeAuthError     = "auth_error"
	TypeCartUpdate    = "cart_update"
	TypeCartUpdated   = "cart_updated"
	TypeError         = "error"
	TypePing          = "ping"
	TypePong          = "pong"
)

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthenticatePayload carries the caller's access token; identity is always
// derived from the verified claims, never from a client-asserted field.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// AuthenticatedPayload acknowledges a successful handshake with the verified
// identity, the server-assigned connection id, and the server clock.
type AuthenticatedPayload struct {
	Identity     string    `json:"identity"`
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

// ErrorPayload is sent back to the offending connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// CartUpdatePayload is the inbound cart snapshot published by one device.
type CartUpdatePayload struct {
	Cart []cart.Line `json:"cart"`
}

// CartUpdatedPayload is the frame fanned out to sibling devices.
// SourceConnectionID labels the origin so a client can drop its own echoes.
type CartUpdatedPayload struct {
	Cart               []cart.Line `json:"cart"`
	Identity           string      `json:"identity"`
	Timestamp          time.Time   `json:"timestamp"`
	SourceConnectionID string      `json:"sourceConnectionId"`
}

// newEnvelope marshals payload into a framed message.
func newEnvelope(msgType string, payload any) Envelope {
	if payload == nil {
		return Envelope{Type: msgType}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		// payload types are all local structs; this cannot fail at runtime
		panic(fmt.Sprintf("marshal %s payload: %v", msgType, err))
	}
	return Envelope{Type: msgType, Payload: raw}
}
