package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "apps.checked", Data: map[string]string{"app": "Notes"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: apps.checked") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"app":"Notes"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishToolEvent_SummaryThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger activity.updated.
	b.PublishToolEvent(ToolEvent{Tool: "notes", Operation: "list", DurationMS: 12})
	// Second event immediately should NOT trigger another summary.
	b.PublishToolEvent(ToolEvent{Tool: "mail", Operation: "send", Error: "cannot access Mail app"})

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	var succeeded, failed, summaries int
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: "+TypeActivityUpdated):
				summaries++
				if !strings.Contains(s, `"calls":1`) {
					t.Errorf("summary should count the first call: %q", s)
				}
			case strings.Contains(s, "event: "+TypeToolFailed):
				failed++
				if !strings.Contains(s, `"error":"cannot access Mail app"`) {
					t.Errorf("failure payload missing error: %q", s)
				}
			case strings.Contains(s, "event: "+TypeToolSucceeded):
				succeeded++
			}
		default:
			break loop
		}
	}

	if succeeded != 1 || failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 1 and 1", succeeded, failed)
	}
	if summaries != 1 {
		t.Errorf("summary events = %d, want 1 (throttled)", summaries)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishToolEvent(ToolEvent{Tool: "contacts", Operation: "search"})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: tool.succeeded") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "apps.checked", Data: map[string]string{"app": "Notes"}})
	b.PublishToolEvent(ToolEvent{Tool: "notes"})
}
