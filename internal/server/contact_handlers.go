package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Leganyst/service-marketplace/internal/service"
)

type contactRequest struct {
	ProviderID uuid.UUID `json:"provider_id"`
	ServiceID  uuid.UUID `json:"service_id"`
}

func (h *handlers) createContact(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	v := &service.ValidationError{}
	if req.ProviderID == uuid.Nil {
		v.Add("provider_id", "Este campo é obrigatório.")
	}
	if req.ServiceID == uuid.Nil {
		v.Add("service_id", "Este campo é obrigatório.")
	}
	if !v.Empty() {
		writeValidation(w, v)
		return
	}

	res, err := h.svc.Contacts.Initiate(r.Context(), id, req.ProviderID, req.ServiceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := toContact(res.Contact)
	out.WhatsAppLink = res.WhatsAppLink
	respondJSON(w, http.StatusCreated, out)
}

func (h *handlers) completeContact(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.svc.Contacts.Complete(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := toContact(res.Contact)
	out.WhatsAppLink = res.WhatsAppLink
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) listProviderContacts(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	contacts, err := h.svc.Contacts.ListForProvider(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toContacts(contacts))
}

func (h *handlers) listClientContacts(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	contacts, err := h.svc.Contacts.ListForClient(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toContacts(contacts))
}
