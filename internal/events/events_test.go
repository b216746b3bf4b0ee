package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEvent(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(MakeEvent("run-1", TypeRunFinished, map[string]int{"new": 3})), &e))
	assert.Equal(t, TypeRunFinished, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "run-1", e.RunID)
	assert.JSONEq(t, `{"new":3}`, string(e.Data))
	assert.False(t, e.At.IsZero())
}

func TestHubFanOutAndSlowSubscriber(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish("one")
	assert.Equal(t, "one", <-a)
	assert.Equal(t, "one", <-b)

	// b never drains; publishing past its buffer must not block
	for i := 0; i < 100; i++ {
		h.Publish("x")
	}
	assert.Len(t, b, cap(b))

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
	drained := 0
	for range a {
		drained++
	}
	assert.Equal(t, cap(a), drained, "buffered events survive close, then the channel ends")
}

func TestNilHubIsNoop(t *testing.T) {
	var h *Hub
	h.Publish("x")
	h.Emit("", TypePing, nil)
}
