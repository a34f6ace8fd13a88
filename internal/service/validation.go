package service

import (
	"net/mail"
	"strings"

	"github.com/Leganyst/service-marketplace/internal/geo"
)

const (
	nationalIDLength = 11
	phoneLength      = 11
	postalCodeLength = 8
)

// sanitizeDigits — телефоны, CPF и CEP храним только цифрами.
func sanitizeDigits(s string) string {
	return geo.Digits(strings.TrimSpace(s))
}

func validateNationalID(v *ValidationError, field, raw string) string {
	d := sanitizeDigits(raw)
	if len(d) != nationalIDLength {
		v.Add(field, "O CPF deve conter exatamente 11 dígitos.")
	}
	return d
}

func validatePhone(v *ValidationError, field, raw string) string {
	d := sanitizeDigits(raw)
	if len(d) != phoneLength {
		v.Add(field, "O telefone deve conter exatamente 11 dígitos (DDD + 9 números).")
	}
	return d
}

func validatePostalCode(v *ValidationError, field, raw string) string {
	d := sanitizeDigits(raw)
	if len(d) != postalCodeLength {
		v.Add(field, "O CEP deve conter exatamente 8 dígitos.")
	}
	return d
}

func validateEmail(v *ValidationError, field, raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		v.Add(field, "Este campo é obrigatório.")
		return email
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		v.Add(field, "Insira um endereço de email válido.")
	}
	return email
}

func required(v *ValidationError, field, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		v.Add(field, "Este campo é obrigatório.")
	}
	return s
}
