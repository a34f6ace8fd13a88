package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Leganyst/service-marketplace/internal/repository"
	"github.com/Leganyst/service-marketplace/internal/service"
)

type ratingRequest struct {
	ContactRequestID uuid.UUID `json:"contact_request_id"`
	Score            int       `json:"score"`
	Comment          string    `json:"comment"`
}

func (h *handlers) createRating(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rating, err := h.svc.Ratings.Create(r.Context(), id, service.RatingInput{
		ContactRequestID: req.ContactRequestID,
		Score:            req.Score,
		Comment:          req.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// перечитываем, чтобы отдать имя клиента и услугу
	full, err := h.svc.Ratings.Get(r.Context(), rating.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRating(full))
}

func (h *handlers) listRatings(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	f := service.RatingFilter{
		ProviderAccountID: p.uuid("provider"),
		MinScore:          p.integer("min_score", 0),
	}
	switch order := repository.RatingOrder(p.raw("order")); order {
	case "", repository.RatingOrderRecent:
		f.Order = repository.RatingOrderRecent
	case repository.RatingOrderHighest, repository.RatingOrderLowest:
		f.Order = order
	default:
		p.v.Add("order", "Ordenação inválida. Use recent, highest ou lowest.")
	}
	if err := p.err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.svc.Ratings.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := ratingListResponse{Stats: list.Stats, Results: make([]ratingResponse, 0, len(list.Ratings))}
	for i := range list.Ratings {
		out.Results = append(out.Results, toRating(&list.Ratings[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) getRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rating, err := h.svc.Ratings.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRating(rating))
}

func (h *handlers) deleteRating(w http.ResponseWriter, r *http.Request) {
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
	if err := h.svc.Ratings.Remove(r.Context(), caller, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
