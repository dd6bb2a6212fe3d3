package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{hub: hub, uid: "user-1", send: make(chan []byte, 10)}
	hub.register <- client

	hub.BroadcastVisit(&VisitEvent{
		Type:      EventPlaceEntry,
		UID:       "user-1",
		PlaceID:   "p1",
		PlaceName: "Home",
		VisitID:   "v1",
		Timestamp: 1700000000,
	})

	select {
	case got := <-client.send:
		var event VisitEvent
		if err := json.Unmarshal(got, &event); err != nil {
			t.Fatalf("invalid event payload: %v", err)
		}
		if event.Type != EventPlaceEntry || event.PlaceID != "p1" || event.PlaceName != "Home" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	hub.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel closed after unregister")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := &Client{hub: hub, uid: "alice", send: make(chan []byte, 10)}
	bob := &Client{hub: hub, uid: "bob", send: make(chan []byte, 10)}
	hub.register <- alice
	hub.register <- bob

	hub.BroadcastVisit(&VisitEvent{
		Type:      EventPlaceExit,
		UID:       "alice",
		PlaceID:   "p1",
		PlaceName: "Office",
		VisitID:   "v1",
		Timestamp: 1700000000,
	})

	select {
	case <-alice.send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for alice's event")
	}

	select {
	case msg := <-bob.send:
		t.Fatalf("bob should not receive alice's event, got %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// unbuffered channel with no reader: delivery cannot succeed
	client := &Client{hub: hub, uid: "user-1", send: make(chan []byte)}
	hub.register <- client

	hub.BroadcastVisit(&VisitEvent{
		Type:      EventPlaceEntry,
		UID:       "user-1",
		PlaceID:   "p1",
		PlaceName: "Home",
		VisitID:   "v1",
		Timestamp: 1700000000,
	})

	// let the hub attempt delivery and evict before we start receiving
	time.Sleep(200 * time.Millisecond)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel closed, got a message")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for eviction")
	}
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, uid: "user-1", send: make(chan []byte, 10)}
	hub.register <- client

	hub.Stop()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected send channel closed after stop")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for shutdown close")
	}
}
