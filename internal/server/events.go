package server

import (
	"net/http"
)

// handleEvents handles GET /api/events: a long-lived SSE stream of events
// published on one bus channel. The channel is selected with the ?channel=
// query parameter and defaults to the chat channel. Subscribers only see
// events published after they connect.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = chatChannel
	}

	sub := s.events.Subscribe(r.Context(), channel)

	sw, ok := startSSE(w)
	if !ok {
		return
	}

	for ev := range sub {
		if err := sw.writeEvent(ev.Type, ev.Data); err != nil {
			return
		}
	}
}
