package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

// Broadcaster is the part of brackets.Hub used to push live updates.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{}) error
}

// HubSink pushes tournament-scoped events to the tournament's websocket room.
type HubSink struct {
	hub Broadcaster
}

func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "hub" }

func (s *HubSink) Handle(_ context.Context, event Event) error {
	if event.TournamentID == nil {
		return nil
	}
	room := models.TournamentRoom(*event.TournamentID)
	return s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    string(event.Kind),
		Payload: event,
		RoomID:  room,
	})
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Any("payload", event.Payload),
	}
	if event.TournamentID != nil {
		fields = append(fields, zap.Int("tournament_id", *event.TournamentID))
	}
	s.logger.Info("event", fields...)
	return nil
}
