package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event delivered: %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToUserWithoutSessionsIsNoOp(t *testing.T) {
	r := NewRegistry(nil, nil)

	// Must complete without error and without side effects.
	r.SendToUser(uuid.New(), Event{Type: EventNewNotification})
}

func TestSendToUserDeliversOncePerSession(t *testing.T) {
	r := NewRegistry(nil, nil)
	userID := uuid.New()

	ch1, err := r.Join("conn-1", userID)
	require.NoError(t, err)
	ch2, err := r.Join("conn-2", userID)
	require.NoError(t, err)

	ev := Event{Type: EventNewMessage, Payload: "hello"}
	r.SendToUser(userID, ev)

	got1 := recvEvent(t, ch1)
	got2 := recvEvent(t, ch2)
	assert.Equal(t, ev, got1)
	assert.Equal(t, ev, got2)
	assertNoEvent(t, ch1)
	assertNoEvent(t, ch2)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry(nil, nil)
	userID := uuid.New()

	ch1, err := r.Join("conn-1", userID)
	require.NoError(t, err)
	ch2, err := r.Join("conn-1", userID)
	require.NoError(t, err)

	// Same pair joins the same session; one delivery, not two.
	r.SendToUser(userID, Event{Type: EventNewNotification})
	recvEvent(t, ch1)
	assertNoEvent(t, ch2)
	assert.Equal(t, 1, r.SessionCount(userID))
}

func TestJoinRejectsEmptyIdentity(t *testing.T) {
	r := NewRegistry(nil, nil)

	_, err := r.Join("", uuid.New())
	assert.Error(t, err)

	_, err = r.Join("conn-1", uuid.Nil)
	assert.Error(t, err)
}

func TestRejoinReassociatesConnection(t *testing.T) {
	r := NewRegistry(nil, nil)
	alice := uuid.New()
	bob := uuid.New()

	_, err := r.Join("conn-1", alice)
	require.NoError(t, err)
	ch, err := r.Join("conn-1", bob)
	require.NoError(t, err)

	assert.Equal(t, 0, r.SessionCount(alice))
	assert.Equal(t, 1, r.SessionCount(bob))

	r.SendToUser(bob, Event{Type: EventNewNotification})
	recvEvent(t, ch)
}

func TestLeaveRemovesExactlyOneConnection(t *testing.T) {
	r := NewRegistry(nil, nil)
	userID := uuid.New()

	ch1, err := r.Join("conn-1", userID)
	require.NoError(t, err)
	ch2, err := r.Join("conn-2", userID)
	require.NoError(t, err)

	r.Leave("conn-1")
	assert.Equal(t, 1, r.SessionCount(userID))

	r.SendToUser(userID, Event{Type: EventMessagesRead})
	recvEvent(t, ch2)
	assertNoEvent(t, ch1)
}

func TestLeaveUnknownConnectionIsNoOp(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Leave("never-joined")
}

func TestSlowSessionDropsInsteadOfBlocking(t *testing.T) {
	r := NewRegistry(nil, nil)
	userID := uuid.New()

	ch, err := r.Join("conn-1", userID)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sessionBuffer+10; i++ {
			r.SendToUser(userID, Event{Type: EventNewNotification})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SendToUser blocked on a saturated session")
	}

	// The buffer holds at most sessionBuffer events; the rest were dropped.
	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	assert.Equal(t, sessionBuffer, count)
}
