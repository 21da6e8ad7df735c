package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docuchat/docuchat-go/internal/bus"
)

// TestHandleEvents_StreamsPublishedEvents subscribes over a real connection
// and verifies published chat events arrive as SSE frames. Publishing is
// retried on a ticker because events published before the subscription is
// registered are discarded by the bus.
func TestHandleEvents_StreamsPublishedEvents(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.handleEvents))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?channel=chat", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: expected text/event-stream, got %q", ct)
	}

	payload, err := json.Marshal(messageEvent{Text: "hello"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.events.Publish(bus.Event{Channel: chatChannel, Type: "message", Data: payload})
			}
		}
	}()

	var sawEvent, sawData bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: message" {
			sawEvent = true
		}
		if strings.Contains(line, `"hello"`) {
			sawData = true
		}
		if sawEvent && sawData {
			break
		}
	}
	if !sawEvent || !sawData {
		t.Errorf("expected message event with payload, sawEvent=%v sawData=%v", sawEvent, sawData)
	}
}

// TestHandleEvents_CommitsStreamBeforeFirstEvent verifies the response
// headers are flushed as soon as the subscription is open: an idle subscriber
// with nothing published must still see a committed SSE stream rather than a
// request that never completes.
func TestHandleEvents_CommitsStreamBeforeFirstEvent(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.handleEvents))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	// Do returns once the response headers arrive. Nothing is ever published
	// here, so this only completes if the handler flushed the headers itself.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events did not commit the stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type: expected text/event-stream, got %q", ct)
	}
}

// TestHandleEvents_ClosesOnBusShutdown verifies the stream ends when the bus
// is closed, so server shutdown does not hang on open SSE connections.
func TestHandleEvents_ClosesOnBusShutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.handleEvents))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	s.events.Close()

	done := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after bus shutdown")
	}
}
