package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// Bus is the in-process transport backing the single-binary local network.
// Every node registers its responder handlers; Dial pairs a fresh channel
// session with a goroutine running the counterparty's handler.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler // party name -> flow -> handler
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewBus(timeout time.Duration, logger *logrus.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]map[string]Handler),
		timeout:  timeout,
		logger:   logger,
	}
}

// Register installs the responder handler a party serves for a flow name.
func (b *Bus) Register(party models.Party, flow string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[party.Name] == nil {
		b.handlers[party.Name] = make(map[string]Handler)
	}
	b.handlers[party.Name][flow] = handler
}

// DialerFor returns the Dialer a node uses to open sessions as the given
// local party.
func (b *Bus) DialerFor(local models.Party) Dialer {
	return &busDialer{bus: b, local: local}
}

type busDialer struct {
	bus   *Bus
	local models.Party
}

func (d *busDialer) Dial(ctx context.Context, counterparty models.Party, flow string) (Session, error) {
	d.bus.mu.RLock()
	handler := d.bus.handlers[counterparty.Name][flow]
	d.bus.mu.RUnlock()
	if handler == nil {
		return nil, fmt.Errorf("no responder for flow %q on %s", flow, counterparty.Name)
	}

	toResponder := make(chan Message)
	toInitiator := make(chan Message)
	initiatorDone := make(chan struct{})
	responderDone := make(chan struct{})

	initiatorSession := &chanSession{
		counterparty: counterparty,
		in:           toInitiator,
		out:          toResponder,
		ownDone:      initiatorDone,
		peerDone:     responderDone,
	}
	responderSession := &chanSession{
		counterparty: d.local,
		in:           toResponder,
		out:          toInitiator,
		ownDone:      responderDone,
		peerDone:     initiatorDone,
	}

	go func() {
		defer responderSession.Close()
		rctx, cancel := context.WithTimeout(context.Background(), d.bus.timeout)
		defer cancel()
		if err := handler(rctx, responderSession); err != nil {
			d.bus.logger.WithFields(logrus.Fields{
				"flow":      flow,
				"responder": counterparty.Name,
				"initiator": d.local.Name,
			}).WithError(err).Warn("responder flow failed")
		}
	}()

	return initiatorSession, nil
}

// chanSession is one endpoint of a paired channel session.
type chanSession struct {
	counterparty models.Party
	in           <-chan Message
	out          chan<- Message
	ownDone      chan struct{}
	peerDone     chan struct{}
	closeOnce    sync.Once
}

func (s *chanSession) Counterparty() models.Party {
	return s.counterparty
}

func (s *chanSession) Send(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msgType, err)
	}
	select {
	case s.out <- Message{Type: msgType, Payload: raw}:
		return nil
	case <-s.peerDone:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chanSession) Receive(ctx context.Context, msgType string, into interface{}) error {
	select {
	case msg := <-s.in:
		if msg.Type == msgTypeReject {
			var reject rejectPayload
			if err := json.Unmarshal(msg.Payload, &reject); err != nil {
				return &RejectedError{Reason: "unspecified"}
			}
			return &RejectedError{Reason: reject.Reason}
		}
		if msg.Type != msgType {
			return fmt.Errorf("expected %s message, got %s", msgType, msg.Type)
		}
		if err := json.Unmarshal(msg.Payload, into); err != nil {
			return fmt.Errorf("failed to decode %s message: %w", msgType, err)
		}
		return nil
	case <-s.peerDone:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chanSession) Reject(ctx context.Context, reason string) error {
	return s.Send(ctx, msgTypeReject, rejectPayload{Reason: reason})
}

func (s *chanSession) Close() error {
	s.closeOnce.Do(func() { close(s.ownDone) })
	return nil
}
