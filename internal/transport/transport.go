// Package transport carries the point-to-point sessions flows run over.
// A session is an ordered, typed message exchange between an initiator and
// the responder registered for a flow name on the counterparty node.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

var ErrSessionClosed = errors.New("transport: session closed by counterparty")

// RejectedError is returned from Receive when the counterparty aborted the
// exchange with an explicit reason instead of the expected message.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected by counterparty: %s", e.Reason)
}

// Message is one frame on a session. The type names the step of the
// exchange so a peer can detect protocol drift before decoding.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const msgTypeReject = "reject"

type rejectPayload struct {
	Reason string `json:"reason"`
}

// Session is one side of a live exchange. Send and Receive honor the
// context deadline, and Receive fails with RejectedError or
// ErrSessionClosed when the peer aborts or hangs up.
type Session interface {
	Counterparty() models.Party
	Send(ctx context.Context, msgType string, payload interface{}) error
	Receive(ctx context.Context, msgType string, into interface{}) error
	Reject(ctx context.Context, reason string) error
	Close() error
}

// Handler serves the responder side of one flow session.
type Handler func(ctx context.Context, session Session) error

// Dialer opens sessions toward other nodes.
type Dialer interface {
	Dial(ctx context.Context, counterparty models.Party, flow string) (Session, error)
}
