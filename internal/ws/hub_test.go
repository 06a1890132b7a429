package ws

import (
	"encoding/json"
	"testing"
)

func TestHubSkipsOwnRedisPublishes(t *testing.T) {
	hub := NewHub(nil)

	own, err := json.Marshal(redisMessage{
		Origin: hub.instanceID,
		UserID: 7,
		Event:  &Event{Type: EventNewMessage},
	})
	if err != nil {
		t.Fatal(err)
	}
	hub.handleRedisPayload(own)
	if got := len(hub.broadcast); got != 0 {
		t.Fatalf("own publish re-broadcast: queue has %d events, want 0", got)
	}

	remote, err := json.Marshal(redisMessage{
		Origin: "some-other-instance",
		UserID: 7,
		Event:  &Event{Type: EventNewMessage},
	})
	if err != nil {
		t.Fatal(err)
	}
	hub.handleRedisPayload(remote)
	if got := len(hub.broadcast); got != 1 {
		t.Fatalf("remote publish: queue has %d events, want 1", got)
	}
}

func TestHubDropsMalformedRedisPayload(t *testing.T) {
	hub := NewHub(nil)

	hub.handleRedisPayload([]byte("not json"))
	if got := len(hub.broadcast); got != 0 {
		t.Fatalf("malformed payload broadcast: queue has %d events, want 0", got)
	}
}
