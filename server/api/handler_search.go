package api

import (
	"net/http"
)

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	passages, err := h.service.Search(r.Context(), request)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJson(w, passages)
}

func (h *Handler) handleTitles(w http.ResponseWriter, r *http.Request) {
	request, err := readRequest(r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	titles, err := h.service.Titles(r.Context(), request)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJson(w, titles)
}
