package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestPublishPreservesSubmissionOrder(t *testing.T) {
	h := NewHub()

	for i := 0; i < 5; i++ {
		h.Publish(Event{Type: "stock_update", Action: fmt.Sprintf("event-%d", i)})
	}

	for i := 0; i < 5; i++ {
		select {
		case msg := <-h.Broadcast:
			var e Event
			if err := json.Unmarshal(msg, &e); err != nil {
				t.Fatalf("unmarshal broadcast %d: %v", i, err)
			}
			if want := fmt.Sprintf("event-%d", i); e.Action != want {
				t.Errorf("broadcast %d: action = %q, want %q", i, e.Action, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("broadcast %d never arrived", i)
		}
	}
}

func TestPublishNeverBlocksWithoutConsumer(t *testing.T) {
	h := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(h.Broadcast)*2; i++ {
			h.Publish(Event{Type: "stock_update", Action: "burst"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no consumer draining the queue")
	}
}
