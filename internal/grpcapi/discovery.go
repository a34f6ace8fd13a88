// Package grpcapi — gRPC-транспорт поиска исполнителей.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/service"
)

// DiscoveryHandler реализует DiscoveryServer поверх сервисного слоя.
type DiscoveryHandler struct {
	UnimplementedDiscoveryServer

	discovery *service.DiscoveryService
	logger    *zap.Logger
}

func NewDiscoveryHandler(discovery *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscoveryHandler{discovery: discovery, logger: logger}
}

// ListProviders: поля запроса совпадают с query-параметрами HTTP-поиска.
func (h *DiscoveryHandler) ListProviders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := fields{req.GetFields()}
	v := &service.ValidationError{}

	f := service.DiscoveryFilter{
		ServiceID:       in.uuid(v, "service_id"),
		CategoryID:      in.uuid(v, "category_id"),
		HasOwnMaterials: in.boolean("has_own_materials"),
		Available24h:    in.boolean("available_24h"),
		WorksWeekends:   in.boolean("works_weekends"),
		MinRating:       in.number("min_rating"),
		Name:            in.str("name"),
		ServiceName:     in.str("service_name"),
		Page:            in.integer("page"),
		PageSize:        in.integer("page_size"),
	}
	if b := in.boolean("best_rated"); b != nil {
		f.BestRated = *b
	}
	if b := in.boolean("sort_by_distance"); b != nil {
		f.SortByDistance = *b
	}
	if pt, ok := geo.NewPoint(in.number("latitude"), in.number("longitude")); ok {
		f.Reference = &pt
	}
	caller := in.uuid(v, "caller_id")
	if err := v.Err(); err != nil {
		return nil, h.toStatus(err)
	}

	page, err := h.discovery.ListProviders(ctx, caller, f)
	if err != nil {
		return nil, h.toStatus(err)
	}

	results := make([]any, 0, len(page.Items))
	for _, it := range page.Items {
		results = append(results, summaryFields(it))
	}
	out, err := structpb.NewStruct(map[string]any{
		"results":      results,
		"count":        page.Total,
		"page":         page.Page,
		"page_size":    page.PageSize,
		"has_next":     page.HasNext,
		"has_previous": page.HasPrev,
	})
	if err != nil {
		return nil, h.toStatus(fmt.Errorf("encode providers: %w", err))
	}
	return out, nil
}

func (h *DiscoveryHandler) GetProvider(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := fields{req.GetFields()}
	v := &service.ValidationError{}
	id := in.uuid(v, "id")
	if id == nil {
		v.Add("id", "Este campo é obrigatório.")
	}
	if err := v.Err(); err != nil {
		return nil, h.toStatus(err)
	}

	detail, err := h.discovery.ProviderDetail(ctx, *id)
	if err != nil {
		return nil, h.toStatus(err)
	}
	out, err := toStruct(detail)
	if err != nil {
		return nil, h.toStatus(fmt.Errorf("encode provider: %w", err))
	}
	return out, nil
}

// toStatus переводит ошибки сервисного слоя в gRPC-коды.
func (h *DiscoveryHandler) toStatus(err error) error {
	var v *service.ValidationError
	switch {
	case errors.As(err, &v):
		return status.Error(codes.InvalidArgument, v.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "provider not found")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		h.logger.Error("grpc request failed", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func summaryFields(s service.ProviderSummary) map[string]any {
	p := s.Profile
	services := make([]any, 0, len(p.ProviderServices))
	for _, sv := range service.ServiceViews(p.ProviderServices) {
		services = append(services, sv.Name)
	}
	m := map[string]any{
		"id":                p.ID.String(),
		"account_id":        p.AccountID.String(),
		"location":          p.LocationLabel(),
		"rating_average":    p.RatingAverage,
		"rating_count":      p.RatingCount,
		"service_count":     p.ServiceCount,
		"available_24h":     p.Available24h,
		"has_own_materials": p.HasOwnMaterials,
		"works_weekends":    p.WorksWeekends,
		"services":          services,
		"distance_km":       nil,
	}
	if p.Account != nil {
		m["name"] = p.Account.FullName
	}
	if s.Distance != nil {
		m["distance_km"] = geo.Round(*s.Distance, 2)
	}
	return m
}

// toStruct — через JSON, чтобы Struct совпадал с HTTP-ответом.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

type fields struct {
	m map[string]*structpb.Value
}

func (f fields) str(key string) string {
	return f.m[key].GetStringValue()
}

func (f fields) uuid(v *service.ValidationError, key string) *uuid.UUID {
	raw := f.str(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		v.Add(key, "Identificador inválido.")
		return nil
	}
	return &id
}

func (f fields) boolean(key string) *bool {
	val, ok := f.m[key]
	if !ok {
		return nil
	}
	if _, isBool := val.GetKind().(*structpb.Value_BoolValue); !isBool {
		return nil
	}
	b := val.GetBoolValue()
	return &b
}

func (f fields) number(key string) *float64 {
	val, ok := f.m[key]
	if !ok {
		return nil
	}
	if _, isNum := val.GetKind().(*structpb.Value_NumberValue); !isNum {
		return nil
	}
	n := val.GetNumberValue()
	return &n
}

func (f fields) integer(key string) int {
	if n := f.number(key); n != nil {
		return int(*n)
	}
	return 0
}
