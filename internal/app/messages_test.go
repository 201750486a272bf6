package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

func TestMessageRelay_AnonymousBroadcastToRegistered(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a", "b")
	reg := NewRegistry()
	pub := &recordingPublisher{}
	relay := NewMessageRelay(s, reg, pub)

	sender, a, b, idle := &fakeConn{}, &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Attach("S", sender)
	reg.Attach("A", a)
	reg.Attach("B", b)
	reg.Attach("I", idle)
	reg.Register("A", ids[0])
	reg.Register("B", ids[1])

	msg, res, err := relay.Send(context.Background(), "S", "hello")
	require.NoError(t, err)
	assert.Nil(t, msg.UserID)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 2, res.SendTo)

	for _, c := range []*fakeConn{a, b} {
		got := c.received(t)
		require.Len(t, got, 1)
		assert.Equal(t, "message", got[0]["type"])
		assert.EqualValues(t, msg.ID, got[0]["id"])
		assert.Equal(t, "hello", got[0]["content"])
		assert.Nil(t, got[0]["userId"])
		assert.NotEmpty(t, got[0]["createdAt"])
	}
	assert.Empty(t, sender.received(t), "unregistered sender is not a target")
	assert.Empty(t, idle.received(t))
	assert.Equal(t, []core.EventKind{core.EventMessageCreated}, pub.kinds())

	stored, err := relay.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].UserID)
}

func TestMessageRelay_RegisteredSenderReceivesOwnMessage(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a")
	reg := NewRegistry()
	relay := NewMessageRelay(s, reg, nil)

	a := &fakeConn{}
	reg.Attach("A", a)
	reg.Register("A", ids[0])

	msg, _, err := relay.Send(context.Background(), "A", "me")
	require.NoError(t, err)
	require.NotNil(t, msg.UserID)
	assert.Equal(t, ids[0], *msg.UserID)

	got := a.received(t)
	require.Len(t, got, 1)
	assert.EqualValues(t, ids[0], got[0]["userId"])
}

// snapshotStore registers a late connection while the message is being stored.
type snapshotStore struct {
	core.MessageStore
	onInsert func()
}

func (s snapshotStore) InsertMessage(ctx context.Context, m *domain.Message) error {
	if err := s.MessageStore.InsertMessage(ctx, m); err != nil {
		return err
	}
	s.onInsert()
	return nil
}

func TestMessageRelay_TargetsTakenAfterPersistence(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a", "late", "gone")
	reg := NewRegistry()

	a, late, gone := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Attach("A", a)
	reg.Register("A", ids[0])
	reg.Attach("G", gone)
	reg.Register("G", ids[2])
	reg.Attach("L", late)

	st := snapshotStore{MessageStore: s, onInsert: func() {
		reg.Register("L", ids[1])
		reg.Forget("G")
	}}
	_, res, err := NewMessageRelay(st, reg, nil).Send(context.Background(), "A", "hi")
	require.NoError(t, err)

	assert.Equal(t, 2, res.SendTo)
	assert.Len(t, a.received(t), 1)
	assert.Len(t, late.received(t), 1, "registered at broadcast time")
	assert.Empty(t, gone.received(t), "forgotten before broadcast")
}

type failingMessageStore struct{ core.MessageStore }

func (failingMessageStore) InsertMessage(context.Context, *domain.Message) error {
	return domain.ErrStoreFailure
}

func TestMessageRelay_NoBroadcastWithoutPersistence(t *testing.T) {
	reg := NewRegistry()
	a := &fakeConn{}
	reg.Attach("A", a)
	reg.Register("A", 1)
	relay := NewMessageRelay(failingMessageStore{}, reg, nil)

	_, _, err := relay.Send(context.Background(), "A", "lost")
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.Empty(t, a.received(t))

	_, _, err = relay.Send(context.Background(), "A", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestMessageRelay_BackpressureReported(t *testing.T) {
	s := setupTestStore(t)
	ids := seedUsers(t, s, "a", "b")
	reg := NewRegistry()
	reg.Attach("A", &fakeConn{})
	reg.Attach("B", &fakeConn{full: true})
	reg.Register("A", ids[0])
	reg.Register("B", ids[1])

	_, res, err := NewMessageRelay(s, reg, nil).Send(context.Background(), "A", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, []core.ConnectionID{"B"}, res.Dropped)
}
