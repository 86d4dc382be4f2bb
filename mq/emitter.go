package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"homestay/rdx"
)

// Channel carries admin events from mutation handlers to the live hub.
const Channel = "admin-events"

// Event is one thing that happened to a room: a booking, a cancellation,
// a sync completion.
type Event struct {
	Name   string    `json:"name"`
	RoomID string    `json:"roomId,omitempty"`
	Detail any       `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Emit publishes an event onto the Redis bus. Failures are logged and
// dropped; event delivery is never allowed to fail a booking.
func Emit(ctx context.Context, name, roomID string, detail any) {
	if rdx.Conn == nil {
		return
	}
	data, err := json.Marshal(Event{Name: name, RoomID: roomID, Detail: detail, At: time.Now().UTC()})
	if err != nil {
		log.Printf("[Emit] marshal failed: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Emit] publish failed: %v", err)
	}
}
