package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Leganyst/service-marketplace/internal/service"
)

const (
	// accountHeader выставляет слой аутентификации перед API.
	accountHeader = "X-Account-ID"

	maxBodyBytes = 1 << 20

	detailNotFound        = "Não encontrado."
	detailForbidden       = "Você não tem permissão para executar essa ação."
	detailUnauthenticated = "As credenciais de autenticação não foram fornecidas."
	detailInternal        = "Erro interno do servidor."
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, v *service.ValidationError) {
	respondJSON(w, http.StatusBadRequest, map[string]any{"errors": v.Fields})
}

// writeError переводит ошибки сервисного слоя в HTTP-статусы.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var v *service.ValidationError
	switch {
	case errors.As(err, &v):
		writeValidation(w, v)
	case errors.Is(err, service.ErrUnauthenticated):
		writeDetail(w, http.StatusUnauthorized, detailUnauthenticated)
	case errors.Is(err, service.ErrForbidden):
		writeDetail(w, http.StatusForbidden, detailForbidden)
	case errors.Is(err, service.ErrNotFound):
		writeDetail(w, http.StatusNotFound, detailNotFound)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeJSON: пустое тело допустимо (PATCH без полей), битое — ошибка валидации.
func decodeJSON(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return service.NewValidationError(service.NonFieldErrors, "Não foi possível ler o corpo da requisição.")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return service.NewValidationError(service.NonFieldErrors, "JSON inválido.")
	}
	return nil
}

// callerID — аккаунт из заголовка; без него — 401.
func callerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(accountHeader)
	if raw == "" {
		return uuid.Nil, service.ErrUnauthenticated
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, service.ErrUnauthenticated
	}
	return id, nil
}

// optionalCaller — для публичных эндпоинтов, где личность лишь уточняет выдачу.
func optionalCaller(r *http.Request) *uuid.UUID {
	id, err := callerID(r)
	if err != nil {
		return nil
	}
	return &id
}

// pathID — {id} из маршрута; битый UUID означает несуществующий ресурс.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, service.ErrNotFound
	}
	return id, nil
}
