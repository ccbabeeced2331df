package ws

import (
	"context"
	"encoding/json"
	"testing"

	"go-vetpos/internal/events"
	"go-vetpos/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesJSON(t *testing.T) {
	h := NewHub(logger.Discard())

	require.NoError(t, h.Publish(context.Background(), events.Event{Type: events.SaleRecorded, EntityID: "s1"}))

	msg := <-h.Broadcast
	var got map[string]any
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "sale_recorded", got["type"])
	assert.Equal(t, "s1", got["entity_id"])
}

func TestPublishDropsWhenBacklogFull(t *testing.T) {
	h := NewHub(logger.Discard())
	for i := 0; i < cap(h.Broadcast); i++ {
		require.NoError(t, h.Publish(context.Background(), events.Event{Type: events.ProductUpdated}))
	}

	err := h.Publish(context.Background(), events.Event{Type: events.ProductUpdated})
	assert.ErrorIs(t, err, ErrBacklog)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
	assert.Zero(t, h.ClientCount())
}
