package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/docuchat/docuchat-go/internal/bus"
	"github.com/docuchat/docuchat-go/internal/logging"
	"github.com/docuchat/docuchat-go/internal/rag"
)

// chatChannel is the bus channel chat events are published on; SSE clients
// subscribe to it via GET /api/events.
const chatChannel = "chat"

// handleChat handles POST /api/chat. Retrieval failures surface as regular
// HTTP errors before any streaming starts; once the SSE stream is open,
// generation failures are delivered in-band as an "error" event.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	result, err := s.engine.Answer(r.Context(), req.Message)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, rag.ErrServiceUnavailable):
			outcome = "unavailable"
			http.Error(w, "model backend unavailable", http.StatusServiceUnavailable)
		case errors.Is(err, rag.ErrEmptyInput):
			http.Error(w, "message is required", http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		log.Error("chat: answer failed", slog.String("error", err.Error()))
		s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		return
	}
	defer result.Tokens.Close()

	sw, ok := startSSE(w)
	if !ok {
		return
	}

	s.metrics.chatActiveStreams.Inc()
	defer s.metrics.chatActiveStreams.Dec()

	outcome := "ok"
	for {
		token, err := result.Tokens.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// The stream is already open; deliver the failure in-band, on
			// the direct response and the event feed alike.
			log.Error("chat: stream failed", slog.String("error", err.Error()))
			if payload, merr := json.Marshal(errorEvent{Error: "generation failed"}); merr == nil {
				_ = sw.writeEvent("error", payload)
				s.events.Publish(bus.Event{Channel: chatChannel, Type: "error", Data: payload})
			}
			outcome = "error"
			break
		}
		if r.Context().Err() != nil {
			// Client went away; stop streaming and publishing.
			outcome = "cancelled"
			break
		}

		payload, err := json.Marshal(messageEvent{Text: token})
		if err != nil {
			log.Error("chat: marshal token", slog.String("error", err.Error()))
			continue
		}
		if err := sw.writeEvent("message", payload); err != nil {
			outcome = "cancelled"
			break
		}
		s.events.Publish(bus.Event{Channel: chatChannel, Type: "message", Data: payload})
	}

	if outcome == "ok" {
		payload, err := json.Marshal(chatSources{Sources: result.Sources})
		if err == nil {
			_ = sw.writeEvent("sources", payload)
			s.events.Publish(bus.Event{Channel: chatChannel, Type: "sources", Data: payload})
		}
		_ = sw.writeEvent("done", []byte("[DONE]"))
	}

	s.metrics.chatRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
