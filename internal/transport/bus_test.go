package transport

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

var (
	initiator = models.Party{Name: "O=Initiator,L=Milan,C=IT", PublicKey: []byte("initiator-key")}
	responder = models.Party{Name: "O=Responder,L=Pisa,C=IT", PublicKey: []byte("responder-key")}
)

func newTestBus() *Bus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewBus(2*time.Second, logger)
}

type ping struct {
	Value string `json:"value"`
}

func TestSessionRoundTrip(t *testing.T) {
	bus := newTestBus()
	bus.Register(responder, "echo", func(ctx context.Context, session Session) error {
		var in ping
		if err := session.Receive(ctx, "ping", &in); err != nil {
			return err
		}
		return session.Send(ctx, "pong", ping{Value: in.Value + "-back"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	session, err := bus.DialerFor(initiator).Dial(ctx, responder, "echo")
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, responder.Name, session.Counterparty().Name)
	require.NoError(t, session.Send(ctx, "ping", ping{Value: "hello"}))

	var out ping
	require.NoError(t, session.Receive(ctx, "pong", &out))
	assert.Equal(t, "hello-back", out.Value)
}

func TestSessionRejection(t *testing.T) {
	bus := newTestBus()
	bus.Register(responder, "picky", func(ctx context.Context, session Session) error {
		var in ping
		if err := session.Receive(ctx, "ping", &in); err != nil {
			return err
		}
		return session.Reject(ctx, "not interested")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	session, err := bus.DialerFor(initiator).Dial(ctx, responder, "picky")
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Send(ctx, "ping", ping{Value: "hello"}))

	var out ping
	err = session.Receive(ctx, "pong", &out)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "not interested", rejected.Reason)
}

func TestSessionClosedByResponder(t *testing.T) {
	bus := newTestBus()
	bus.Register(responder, "hangup", func(ctx context.Context, session Session) error {
		return nil // returns immediately, closing the session
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	session, err := bus.DialerFor(initiator).Dial(ctx, responder, "hangup")
	require.NoError(t, err)
	defer session.Close()

	var out ping
	err = session.Receive(ctx, "pong", &out)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestReceiveDeadline(t *testing.T) {
	bus := newTestBus()
	bus.Register(responder, "silent", func(ctx context.Context, session Session) error {
		<-ctx.Done()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	session, err := bus.DialerFor(initiator).Dial(ctx, responder, "silent")
	require.NoError(t, err)
	defer session.Close()

	var out ping
	err = session.Receive(ctx, "pong", &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialUnknownResponder(t *testing.T) {
	bus := newTestBus()

	_, err := bus.DialerFor(initiator).Dial(context.Background(), responder, "missing")
	assert.Error(t, err)
}

func TestMismatchedMessageType(t *testing.T) {
	bus := newTestBus()
	bus.Register(responder, "drifter", func(ctx context.Context, session Session) error {
		return session.Send(ctx, "unexpected", ping{Value: "x"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	session, err := bus.DialerFor(initiator).Dial(ctx, responder, "drifter")
	require.NoError(t, err)
	defer session.Close()

	var out ping
	err = session.Receive(ctx, "pong", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionClosed)
}
