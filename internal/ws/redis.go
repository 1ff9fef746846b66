package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/poolsim/internal/session"
	"github.com/redis/go-redis/v9"
)

// StartEventSubscriber relays env events published on Redis to local viewers, so any
// server instance can stream an env stepped on another.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, session.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", session.EventsChannel)
		for {
			select {
			case <-ctx.Done():
				log.Println("[WS] event subscriber stopping")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				relay(hub, msg.Payload)
			}
		}
	}()
}

func relay(hub *Hub, payload string) {
	var event struct {
		Type  string `json:"type"`
		EnvID string `json:"env_id"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}
	if event.EnvID == "" {
		return
	}

	switch event.Type {
	case "snapshot":
		hub.Broadcast(event.EnvID, []byte(payload))
	case "closed":
		hub.CloseRoom(event.EnvID)
	default:
		log.Printf("[WS] ignoring event type=%s env=%s", event.Type, event.EnvID)
	}
}
