package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Leganyst/service-marketplace/internal/service"
)

// queryParser копит ошибки разбора query-параметров в одну ValidationError.
type queryParser struct {
	q url.Values
	v service.ValidationError
}

func newQueryParser(q url.Values) *queryParser {
	return &queryParser{q: q}
}

func (p *queryParser) raw(key string) string {
	return strings.TrimSpace(p.q.Get(key))
}

func (p *queryParser) uuid(key string) *uuid.UUID {
	raw := p.raw(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		p.v.Add(key, "Identificador inválido.")
		return nil
	}
	return &id
}

// boolean — трёхзначный флаг: отсутствует, true/1 или false/0.
func (p *queryParser) boolean(key string) *bool {
	raw := strings.ToLower(p.raw(key))
	switch raw {
	case "":
		return nil
	case "true", "1":
		b := true
		return &b
	case "false", "0":
		b := false
		return &b
	}
	p.v.Add(key, "Valor booleano inválido.")
	return nil
}

func (p *queryParser) float(key string) *float64 {
	raw := p.raw(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.v.Add(key, "Número inválido.")
		return nil
	}
	return &f
}

func (p *queryParser) integer(key string, def int) int {
	raw := p.raw(key)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		p.v.Add(key, "Número inteiro inválido.")
		return def
	}
	return i
}

func (p *queryParser) err() error {
	return p.v.Err()
}
