package server

import (
	"net/http"

	"github.com/Leganyst/service-marketplace/internal/service"
)

type portfolioRequest struct {
	ImageURL    *string `json:"image"`
	Description *string `json:"description"`
}

func (h *handlers) listPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.svc.Portfolio.List(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]service.PortfolioView, 0, len(items))
	for _, it := range items {
		out = append(out, toPortfolio(it))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) addPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var image, description string
	if req.ImageURL != nil {
		image = *req.ImageURL
	}
	if req.Description != nil {
		description = *req.Description
	}
	item, err := h.svc.Portfolio.Add(r.Context(), id, image, description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPortfolio(*item))
}

func (h *handlers) updatePortfolio(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req portfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.svc.Portfolio.Update(r.Context(), caller, id, service.PortfolioUpdate{
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPortfolio(*item))
}

func (h *handlers) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Portfolio.Delete(r.Context(), caller, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
