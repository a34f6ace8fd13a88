package server

import (
	"net/http"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/service"
)

// discoveryFilter — фильтры поиска из query-строки.
func discoveryFilter(r *http.Request) (service.DiscoveryFilter, error) {
	p := newQueryParser(r.URL.Query())
	f := service.DiscoveryFilter{
		ServiceID:       p.uuid("service"),
		CategoryID:      p.uuid("category"),
		HasOwnMaterials: p.boolean("has_own_materials"),
		Available24h:    p.boolean("available_24h"),
		WorksWeekends:   p.boolean("works_weekends"),
		MinRating:       p.float("min_rating"),
		Name:            p.raw("name"),
		ServiceName:     p.raw("service_name"),
		Page:            p.integer("page", 1),
		PageSize:        p.integer("page_size", 0),
	}
	if b := p.boolean("best_rated"); b != nil {
		f.BestRated = *b
	}
	if b := p.boolean("sort_by_distance"); b != nil {
		f.SortByDistance = *b
	}

	// координаты в запросе важнее сохранённых в профиле
	lat, latOK := geo.ParseCoordinate(p.raw("latitude"))
	lon, lonOK := geo.ParseCoordinate(p.raw("longitude"))
	if latOK && lonOK {
		if pt, ok := geo.NewPoint(lat, lon); ok {
			f.Reference = &pt
		}
	}

	return f, p.err()
}

func (h *handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	f, err := discoveryFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.svc.Discovery.ListProviders(r.Context(), optionalCaller(r), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProviderPage(page))
}

func (h *handlers) getProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.svc.Discovery.ProviderDetail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategory(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r.URL.Query())
	categoryID := p.uuid("category")
	if err := p.err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	services, err := h.svc.Catalog.ListServices(r.Context(), categoryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toService(s))
	}
	respondJSON(w, http.StatusOK, out)
}
