package ws

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConn(h *Hub, sessionID string, candidate bool) *Connection {
	c := &Connection{SessionID: sessionID, IsCandidate: candidate, Send: make(chan []byte, 8), Hub: h}
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "connection closed")
		var m Message
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func assertClosed(t *testing.T, c *Connection) {
	t.Helper()
	select {
	case _, ok := <-c.Send:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("connection not closed")
	}
}

func TestHubRoutesBySessionAndRole(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()

	r1 := newConn(h, "s1", false)
	r2 := newConn(h, "s1", false)
	other := newConn(h, "s2", false)
	cand := newConn(h, "s1", true)

	// both recruiters hear about the candidate
	assert.Equal(t, MsgCandidateConnected, receive(t, r1).Type)
	assert.Equal(t, MsgCandidateConnected, receive(t, r2).Type)

	h.BroadcastToRecruiters("s1", "signals_update", map[string]int{"sampleCount": 3})
	m := receive(t, r1)
	assert.Equal(t, MessageType("signals_update"), m.Type)
	assert.JSONEq(t, `{"sampleCount":3}`, string(m.Payload))
	assert.Equal(t, MessageType("signals_update"), receive(t, r2).Type)

	h.BroadcastToCandidate("s1", "next_question", map[string]string{"question": "Why?"})
	assert.Equal(t, MessageType("next_question"), receive(t, cand).Type)

	assert.Empty(t, other.Send)
	assert.Empty(t, r1.Send)
}

func TestHubReplacesCandidate(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()

	first := newConn(h, "s1", true)
	second := newConn(h, "s1", true)
	assertClosed(t, first)

	// the stale connection unregistering must not drop the new one
	h.Unregister(first)
	h.BroadcastToCandidate("s1", "next_question", "q")
	assert.Equal(t, MessageType("next_question"), receive(t, second).Type)
}

func TestHubDisconnectSession(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()

	rec := newConn(h, "s1", false)
	cand := newConn(h, "s1", true)
	assert.Equal(t, MsgCandidateConnected, receive(t, rec).Type)

	h.DisconnectSession("s1")
	assertClosed(t, cand)

	// recruiter may first get the candidate_left notice
	select {
	case data, ok := <-rec.Send:
		if ok {
			var m Message
			require.NoError(t, json.Unmarshal(data, &m))
			assert.Equal(t, MsgCandidateLeft, m.Type)
			assertClosed(t, rec)
		}
	case <-time.After(time.Second):
		t.Fatal("recruiter not disconnected")
	}
}

func TestDecodeSnapshot(t *testing.T) {
	img := []byte{1, 2, 3}
	enc := base64.StdEncoding.EncodeToString(img)

	got, ts, err := decodeSnapshot(json.RawMessage(`{"image":"` + enc + `","timestampMs":99}`))
	require.NoError(t, err)
	assert.Equal(t, img, got)
	assert.Equal(t, int64(99), ts)

	got, _, err = decodeSnapshot(json.RawMessage(`{"image":"data:image/jpeg;base64,` + enc + `"}`))
	require.NoError(t, err)
	assert.Equal(t, img, got)

	_, _, err = decodeSnapshot(json.RawMessage(`{"image":"%%%"}`))
	assert.Error(t, err)
	_, _, err = decodeSnapshot(json.RawMessage(`{"image":""}`))
	assert.Error(t, err)
}
