package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/service"
)

type accountRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	BirthDate       string `json:"birth_date"`
	Gender          string `json:"gender"`
	NationalID      string `json:"national_id"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type registerClientRequest struct {
	accountRequest
	ContactPhone string `json:"contact_phone"`
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
}

type registerProviderRequest struct {
	accountRequest
	PublicPhone     string      `json:"public_phone"`
	Bio             string      `json:"bio"`
	PostalCode      string      `json:"postal_code"`
	Street          string      `json:"street"`
	Number          string      `json:"number"`
	Available24h    bool        `json:"available_24h"`
	HasOwnMaterials bool        `json:"has_own_materials"`
	WorksWeekends   bool        `json:"works_weekends"`
	Services        []uuid.UUID `json:"services"`
}

type accountUpdateRequest struct {
	FullName  *string `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
}

type addressRequest struct {
	PostalCode *string `json:"postal_code"`
	Street     *string `json:"street"`
	Number     *string `json:"number"`
	Complement *string `json:"complement"`
}

func (a addressRequest) input() service.AddressInput {
	return service.AddressInput{
		PostalCode: a.PostalCode,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
	}
}

type clientProfileRequest struct {
	addressRequest
	ContactPhone *string `json:"contact_phone"`
	PhotoURL     *string `json:"photo"`
}

type providerProfileRequest struct {
	addressRequest
	Bio             *string `json:"bio"`
	PublicPhone     *string `json:"public_phone"`
	PhotoURL        *string `json:"photo"`
	Available24h    *bool   `json:"available_24h"`
	HasOwnMaterials *bool   `json:"has_own_materials"`
	WorksWeekends   *bool   `json:"works_weekends"`
}

// parseBirthDate: пустая строка — дата не указана.
func parseBirthDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, service.NewValidationError("birth_date", "Formato de data inválido. Use AAAA-MM-DD.")
	}
	return &d, nil
}

func (req accountRequest) input() (service.AccountInput, error) {
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return service.AccountInput{}, err
	}
	return service.AccountInput{
		Email:           req.Email,
		FullName:        req.FullName,
		BirthDate:       birth,
		Gender:          model.Gender(strings.ToUpper(strings.TrimSpace(req.Gender))),
		NationalID:      req.NationalID,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}, nil
}

func (h *handlers) registerClient(w http.ResponseWriter, r *http.Request) {
	var req registerClientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	acc, err := req.accountRequest.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.svc.Accounts.RegisterClient(r.Context(), service.RegisterClientInput{
		AccountInput: acc,
		ContactPhone: req.ContactPhone,
		PostalCode:   req.PostalCode,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccount(account))
}

func (h *handlers) registerProvider(w http.ResponseWriter, r *http.Request) {
	var req registerProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	acc, err := req.accountRequest.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.svc.Accounts.RegisterProvider(r.Context(), service.RegisterProviderInput{
		AccountInput:    acc,
		PublicPhone:     req.PublicPhone,
		Bio:             req.Bio,
		PostalCode:      req.PostalCode,
		Street:          req.Street,
		Number:          req.Number,
		Available24h:    req.Available24h,
		HasOwnMaterials: req.HasOwnMaterials,
		WorksWeekends:   req.WorksWeekends,
		ServiceIDs:      req.Services,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccount(account))
}

func (h *handlers) getMe(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccount(account))
}

func (h *handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req accountUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	upd := service.AccountUpdate{FullName: req.FullName}
	if req.BirthDate != nil {
		birth, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		upd.BirthDate = birth
	}
	if req.Gender != nil {
		g := model.Gender(strings.ToUpper(strings.TrimSpace(*req.Gender)))
		upd.Gender = &g
	}

	account, err := h.svc.Accounts.UpdateAccount(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccount(account))
}

// deleteMe — мягкое удаление аккаунта со всеми зависимыми записями.
func (h *handlers) deleteMe(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Accounts.SoftDelete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) updateClientProfile(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req clientProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	profile, err := h.svc.Profiles.UpdateClientProfile(r.Context(), id, service.ClientProfileInput{
		ContactPhone: req.ContactPhone,
		PhotoURL:     req.PhotoURL,
		Address:      req.addressRequest.input(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toClientProfile(profile))
}

func (h *handlers) updateProviderProfile(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req providerProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	profile, err := h.svc.Profiles.UpdateProviderProfile(r.Context(), id, service.ProviderProfileInput{
		Bio:             req.Bio,
		PublicPhone:     req.PublicPhone,
		PhotoURL:        req.PhotoURL,
		Available24h:    req.Available24h,
		HasOwnMaterials: req.HasOwnMaterials,
		WorksWeekends:   req.WorksWeekends,
		Address:         req.addressRequest.input(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProviderProfile(profile))
}

type favoriteRequest struct {
	ProviderID uuid.UUID `json:"provider_id"`
}

func (h *handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	providers, err := h.svc.Favorites.ListFavorites(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]providerSummaryResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderSummary(service.ProviderSummary{Profile: p}))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req favoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ProviderID == uuid.Nil {
		writeValidation(w, service.NewValidationError("provider_id", "Este campo é obrigatório."))
		return
	}

	favorited, err := h.svc.Favorites.ToggleFavorite(r.Context(), id, req.ProviderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"provider_id": req.ProviderID, "favorited": favorited})
}
