package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	inRoom := NewClient(hub, nil, "tournament_1")
	otherRoom := NewClient(hub, nil, "tournament_2")
	require.True(t, hub.Subscribe(inRoom))
	require.True(t, hub.Subscribe(otherRoom))

	require.Eventually(t, func() bool {
		return hub.RoomSize("tournament_1") == 1 && hub.RoomSize("tournament_2") == 1
	}, time.Second, 5*time.Millisecond)

	msg := WebSocketMessage{Type: "bracket.updated", Payload: map[string]int{"matchId": 3}, RoomID: "tournament_1"}
	require.NoError(t, hub.BroadcastToRoom("tournament_1", msg))

	select {
	case raw := <-inRoom.Send:
		var got WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "bracket.updated", got.Type)
		assert.Equal(t, "tournament_1", got.RoomID)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	select {
	case <-otherRoom.Send:
		t.Fatal("message leaked into another room")
	default:
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	client := NewClient(hub, nil, "tournament_9")
	require.True(t, hub.Subscribe(client))
	require.Eventually(t, func() bool { return hub.RoomSize("tournament_9") == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case _, ok := <-client.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client channel not closed")
	}
	assert.False(t, hub.Subscribe(NewClient(hub, nil, "tournament_9")))
	assert.Equal(t, 0, hub.RoomSize("tournament_9"))
}
