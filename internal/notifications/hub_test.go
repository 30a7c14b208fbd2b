package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	a, err := hub.Register("u1", nil)
	require.NoError(t, err)
	b, err := hub.Register("u1", nil)
	require.NoError(t, err)
	other, err := hub.Register("u2", nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline("u1"))

	hub.Broadcast("u1", []byte("hello"))
	assert.Equal(t, []byte("hello"), <-a.Send)
	assert.Equal(t, []byte("hello"), <-b.Send)
	assert.Empty(t, other.Send)

	hub.Unregister(a)
	hub.Unregister(a)
	_, open := <-a.Send
	assert.False(t, open)
	assert.True(t, hub.IsOnline("u1"))

	hub.Unregister(b)
	assert.False(t, hub.IsOnline("u1"))

	require.NoError(t, hub.Shutdown(context.Background()))
	_, open = <-other.Send
	assert.False(t, open)
	assert.False(t, hub.IsOnline("u2"))
}

func TestHub_PerUserLimit(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("busy", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register("busy", nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, err := hub.Register("slow", nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		c.TrySend([]byte("x"))
	}
	c.TrySend([]byte("overflow"))
	assert.Len(t, c.Send, sendBuffer)

	<-c.Send
	c.TrySend([]byte("overflow"))
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_StartWiringDeliversEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register("65f1c0d2a1b2c3d4e5f60718", nil)
	require.NoError(t, err)

	ev := Event{Type: EventNewMessage, Payload: map[string]string{"conversationId": "c1"}}
	require.NoError(t, n.PublishEvent(ctx, ev, "65f1c0d2a1b2c3d4e5f60718", "someone-else"))

	var got []byte
	assert.Eventually(t, func() bool {
		select {
		case got = <-c.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var decoded struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, EventNewMessage, decoded.Type)
	assert.Equal(t, "c1", decoded.Payload["conversationId"])
}

func TestNotifier_NilRedis(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), "u1", "payload"))
	assert.NoError(t, n.PublishEvent(context.Background(), Event{Type: EventNewMessage}, "u1"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishEvent(context.Background(), Event{}, "u1"))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))

	id, ok := UserFromChannel("notifications:user:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = UserFromChannel("chat:conv:1")
	assert.False(t, ok)
	_, ok = UserFromChannel("notifications:user:")
	assert.False(t, ok)
}
