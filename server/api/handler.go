package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lettera/lettera/pkg/answer"
	"github.com/lettera/lettera/pkg/chain"
	"github.com/lettera/lettera/pkg/provider"

	"github.com/go-chi/chi/v5"
)

type AnswerService interface {
	Search(ctx context.Context, request answer.Request) ([]answer.Passage, error)
	Titles(ctx context.Context, request answer.Request) ([]answer.Title, error)

	Ask(ctx context.Context, request answer.Request) (*answer.Response, error)
	AskStream(ctx context.Context, request answer.Request, handler provider.StreamHandler) (*answer.Response, error)
}

type Handler struct {
	service AnswerService
}

func New(service AnswerService) (*Handler, error) {
	if service == nil {
		return nil, errors.New("service is required")
	}

	return &Handler{
		service: service,
	}, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", h.handleSearch)
		r.Post("/titles", h.handleTitles)

		r.Post("/ask", h.handleAsk)
		r.Post("/ask/stream", h.handleAskStream)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, map[string]string{"status": "ok"})
}

func readRequest(r *http.Request) (answer.Request, error) {
	var request answer.Request

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return request, errors.New("invalid request body")
	}

	return request, nil
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	body := errorBody{
		Error: http.StatusText(code),
	}

	if err != nil {
		body.Error = err.Error()
	}

	var exhausted *chain.ExhaustedError

	if errors.As(err, &exhausted) {
		body.Attempts = exhausted.Attempts
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(body)
}

// statusFor maps service errors to HTTP status codes. Bad input is the
// caller's fault, an exhausted provider chain is an upstream failure,
// everything else is ours.
func statusFor(err error) int {
	var verr *answer.ValidationError

	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}

	var exhausted *chain.ExhaustedError

	if errors.As(err, &exhausted) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`

	Attempts []chain.Attempt `json:"attempts,omitempty"`
}
