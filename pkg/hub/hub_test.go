package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	h := New("status")
	require.NotNil(t, h)
	assert.Equal(t, 0, h.ClientCount())
}

func TestBroadcastJSON(t *testing.T) {
	h := New("status")

	err := h.BroadcastJSON(map[string]string{"state": "scanning"})
	require.NoError(t, err)

	// Unencodable values surface as an error instead of a panic.
	err = h.BroadcastJSON(make(chan int))
	assert.Error(t, err)
}

func TestBroadcastNeverBlocksProducer(t *testing.T) {
	// No hub goroutine is running, so the buffered channel fills up.
	// The producer must keep returning instead of wedging the control loop.
	h := New("status")
	for i := 0; i < 300; i++ {
		h.Broadcast([]byte(`{}`))
	}
}
