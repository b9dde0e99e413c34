package services

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastFansOut(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: "u1"}
	second := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: "u2"}
	hub.Register(first)
	hub.Register(second)

	hub.Broadcast(Event{Type: EventTaskCreated, Payload: map[string]string{"id": "t1"}})

	for _, client := range []*Client{first, second} {
		select {
		case raw := <-client.Send:
			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if event.Type != EventTaskCreated {
				t.Errorf("event type: got %q, want %q", event.Type, EventTaskCreated)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s received no event", client.UserID)
		}
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 4), UserID: "u1"}
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}
