package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lettera/lettera/pkg/provider"
)

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	response, err := h.service.Ask(r.Context(), request)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJson(w, response)
}

// handleAskStream sends answer deltas as server-sent events, followed by a
// final "done" event with the full response metadata. Errors after the
// first delta arrive as an "error" event since the status line is gone.
func (h *Handler) handleAskStream(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	flusher, ok := w.(http.Flusher)

	if !ok {
		writeError(w, http.StatusInternalServerError, nil)
		return
	}

	var streaming bool

	handler := func(ctx context.Context, completion provider.Completion) error {
		if !streaming {
			streaming = true

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
		}

		delta := ""

		if completion.Message != nil {
			delta = completion.Message.Content
		}

		writeEvent(w, "", streamDelta{Delta: delta})
		flusher.Flush()

		return nil
	}

	response, err := h.service.AskStream(r.Context(), request, handler)

	if err != nil {
		if !streaming {
			writeError(w, statusFor(err), err)
			return
		}

		writeEvent(w, "error", errorBody{Error: err.Error()})
		flusher.Flush()

		return
	}

	if !streaming {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
	}

	writeEvent(w, "done", response)
	flusher.Flush()
}

type streamDelta struct {
	Delta string `json:"delta"`
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	if event != "" {
		w.Write([]byte("event: " + event + "\n"))
	}

	data, _ := json.Marshal(v)

	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}
