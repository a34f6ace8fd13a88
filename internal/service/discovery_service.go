package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/listing"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

const latestRatingsOnDetail = 5

// DiscoveryService — поиск исполнителей по фильтрам и расстоянию, публичная карточка.
type DiscoveryService struct {
	db     *gorm.DB
	cache  ProviderCache
	logger *zap.Logger
}

func NewDiscoveryService(db *gorm.DB, cache ProviderCache, logger *zap.Logger) *DiscoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscoveryService{db: db, cache: cacheOrNoop(cache), logger: logger}
}

// DiscoveryFilter — параметры поиска. Булевы флаги трёхзначные: nil — не фильтровать.
type DiscoveryFilter struct {
	ServiceID       *uuid.UUID
	CategoryID      *uuid.UUID
	HasOwnMaterials *bool
	Available24h    *bool
	WorksWeekends   *bool
	MinRating       *float64
	Name            string
	ServiceName     string
	BestRated       bool

	// Reference — явная точка отсчёта; без неё берутся координаты профиля клиента.
	Reference      *geo.Point
	SortByDistance bool

	Page     int
	PageSize int
}

type ProviderSummary struct {
	Profile  model.ProviderProfile
	Distance *float64
}

type ServiceView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

type PortfolioView struct {
	ID          uuid.UUID `json:"id"`
	ImageURL    string    `json:"image"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type RatingView struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"client_name"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment"`
	Date       string    `json:"date"`
}

// ProviderDetail — публичная карточка исполнителя; в таком виде лежит в кэше.
type ProviderDetail struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Bio             string          `json:"bio"`
	PublicPhone     string          `json:"public_phone"`
	PhotoURL        string          `json:"photo"`
	Location        string          `json:"location"`
	City            string          `json:"city"`
	Neighborhood    string          `json:"neighborhood"`
	State           string          `json:"state"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	Available24h    bool            `json:"available_24h"`
	HasOwnMaterials bool            `json:"has_own_materials"`
	WorksWeekends   bool            `json:"works_weekends"`
	RatingAverage   float64         `json:"rating_average"`
	RatingCount     int             `json:"rating_count"`
	ServiceCount    int             `json:"service_count"`
	Services        []ServiceView   `json:"services"`
	Portfolio       []PortfolioView `json:"portfolio"`
	LatestRatings   []RatingView    `json:"latest_ratings"`
}

// ListProviders применяет фильтры в БД, затем считает расстояния и режет страницу.
func (s *DiscoveryService) ListProviders(ctx context.Context, callerID *uuid.UUID, f DiscoveryFilter) (listing.Page[ProviderSummary], error) {
	if f.ServiceID != nil && f.CategoryID != nil {
		if err := validateServiceCategory(ctx, s.db, *f.ServiceID, *f.CategoryID); err != nil {
			return listing.Page[ProviderSummary]{}, err
		}
	}

	providers, err := repository.NewGormProviderRepository(s.db).Search(ctx, repository.ProviderQuery{
		ServiceID:       f.ServiceID,
		CategoryID:      f.CategoryID,
		HasOwnMaterials: f.HasOwnMaterials,
		Available24h:    f.Available24h,
		WorksWeekends:   f.WorksWeekends,
		MinRating:       f.MinRating,
		Name:            f.Name,
		ServiceName:     f.ServiceName,
		BestRated:       f.BestRated,
	})
	if err != nil {
		return listing.Page[ProviderSummary]{}, fmt.Errorf("search providers: %w", err)
	}

	ref := f.Reference
	if ref == nil && callerID != nil {
		ref = s.callerLocation(ctx, *callerID)
	}

	ranked := geo.Rank(providers, ref, func(p model.ProviderProfile) (*float64, *float64) {
		return p.Address.Latitude, p.Address.Longitude
	})
	if f.SortByDistance && ref != nil {
		geo.SortByDistance(ranked)
	}

	summaries := make([]ProviderSummary, 0, len(ranked))
	for _, r := range ranked {
		summaries = append(summaries, ProviderSummary{Profile: r.Item, Distance: r.Distance})
	}
	return listing.Paginate(summaries, f.Page, f.PageSize), nil
}

// callerLocation — координаты из профиля клиента, если они есть.
func (s *DiscoveryService) callerLocation(ctx context.Context, accountID uuid.UUID) *geo.Point {
	profile, err := repository.NewGormClientRepository(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("caller location lookup failed", zap.Error(err))
		}
		return nil
	}
	p, ok := geo.NewPoint(profile.Address.Latitude, profile.Address.Longitude)
	if !ok {
		return nil
	}
	return &p
}

// ProviderDetail отдаёт карточку (из кэша, если есть) и увеличивает счётчик просмотров.
func (s *DiscoveryService) ProviderDetail(ctx context.Context, profileID uuid.UUID) (*ProviderDetail, error) {
	providers := repository.NewGormProviderRepository(s.db)

	var detail ProviderDetail
	hit, err := s.cache.GetProvider(ctx, profileID, &detail)
	if err != nil {
		s.logger.Warn("provider cache read failed", zap.String("provider_id", profileID.String()), zap.Error(err))
	}
	if !hit {
		d, err := s.loadDetail(ctx, profileID)
		if err != nil {
			return nil, err
		}
		detail = *d
		if err := s.cache.SetProvider(ctx, profileID, &detail); err != nil {
			s.logger.Warn("provider cache write failed", zap.String("provider_id", profileID.String()), zap.Error(err))
		}
	}

	if err := providers.IncrementViews(ctx, profileID); err != nil {
		s.logger.Warn("profile view counter failed", zap.String("provider_id", profileID.String()), zap.Error(err))
	}
	return &detail, nil
}

func (s *DiscoveryService) loadDetail(ctx context.Context, profileID uuid.UUID) (*ProviderDetail, error) {
	p, err := repository.NewGormProviderRepository(s.db).GetDetail(ctx, profileID)
	if err != nil {
		return nil, notFound(err, "get provider detail")
	}

	d := &ProviderDetail{
		ID:              p.ID,
		AccountID:       p.AccountID,
		Bio:             p.Bio,
		PublicPhone:     p.PublicPhone,
		PhotoURL:        p.PhotoURL,
		Location:        p.LocationLabel(),
		City:            p.Address.City,
		Neighborhood:    p.Address.Neighborhood,
		State:           p.Address.State,
		Latitude:        p.Address.Latitude,
		Longitude:       p.Address.Longitude,
		Available24h:    p.Available24h,
		HasOwnMaterials: p.HasOwnMaterials,
		WorksWeekends:   p.WorksWeekends,
		RatingAverage:   p.RatingAverage,
		RatingCount:     p.RatingCount,
		ServiceCount:    p.ServiceCount,
		Services:        ServiceViews(p.ProviderServices),
		Portfolio:       make([]PortfolioView, 0, len(p.Portfolio)),
	}
	if p.Account != nil {
		d.Name = p.Account.FullName
		d.Email = p.Account.Email
	}
	for _, it := range p.Portfolio {
		d.Portfolio = append(d.Portfolio, PortfolioView{
			ID:          it.ID,
			ImageURL:    it.ImageURL,
			Description: it.Description,
			CreatedAt:   it.CreatedAt,
		})
	}

	ratings, err := repository.NewGormRatingRepository(s.db).List(ctx, repository.RatingQuery{
		ProviderAccountID: &p.AccountID,
		Order:             repository.RatingOrderRecent,
		Limit:             latestRatingsOnDetail,
	})
	if err != nil {
		return nil, fmt.Errorf("latest ratings: %w", err)
	}
	d.LatestRatings = RatingViews(ratings)
	return d, nil
}

// ServiceViews — активные услуги исполнителя.
func ServiceViews(links []model.ProviderService) []ServiceView {
	out := make([]ServiceView, 0, len(links))
	for _, l := range links {
		if l.Service == nil {
			continue
		}
		v := ServiceView{ID: l.Service.ID, Name: l.Service.Name}
		if l.Service.Category != nil {
			v.Category = l.Service.Category.Name
		}
		out = append(out, v)
	}
	return out
}

func RatingViews(ratings []model.Rating) []RatingView {
	out := make([]RatingView, 0, len(ratings))
	for _, r := range ratings {
		v := RatingView{
			ID:      r.ID,
			Score:   r.Score,
			Comment: r.Comment,
			Date:    r.CreatedAt.Format("02/01/2006"),
		}
		if r.ContactRequest != nil && r.ContactRequest.Client != nil {
			v.ClientName = r.ContactRequest.Client.FullName
		}
		out = append(out, v)
	}
	return out
}
