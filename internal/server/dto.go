package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/listing"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/service"
)

const dateLayout = "2006-01-02"

type addressResponse struct {
	PostalCode   string   `json:"postal_code"`
	Street       string   `json:"street"`
	Number       string   `json:"number"`
	Complement   string   `json:"complement"`
	City         string   `json:"city"`
	Neighborhood string   `json:"neighborhood"`
	State        string   `json:"state"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func toAddress(a model.Address) addressResponse {
	return addressResponse{
		PostalCode:   a.PostalCode,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		City:         a.City,
		Neighborhood: a.Neighborhood,
		State:        a.State,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
	}
}

type clientProfileResponse struct {
	ID           uuid.UUID       `json:"id"`
	ContactPhone string          `json:"contact_phone"`
	PhotoURL     string          `json:"photo"`
	Address      addressResponse `json:"address"`
}

func toClientProfile(p *model.ClientProfile) *clientProfileResponse {
	if p == nil {
		return nil
	}
	return &clientProfileResponse{
		ID:           p.ID,
		ContactPhone: p.ContactPhone,
		PhotoURL:     p.PhotoURL,
		Address:      toAddress(p.Address),
	}
}

type providerProfileResponse struct {
	ID              uuid.UUID             `json:"id"`
	Bio             string                `json:"bio"`
	PublicPhone     string                `json:"public_phone"`
	PhotoURL        string                `json:"photo"`
	Address         addressResponse       `json:"address"`
	Location        string                `json:"location"`
	Available24h    bool                  `json:"available_24h"`
	HasOwnMaterials bool                  `json:"has_own_materials"`
	WorksWeekends   bool                  `json:"works_weekends"`
	RatingAverage   float64               `json:"rating_average"`
	RatingCount     int                   `json:"rating_count"`
	ProfileViews    int                   `json:"profile_views"`
	ServiceCount    int                   `json:"service_count"`
	Services        []service.ServiceView `json:"services"`
}

func toProviderProfile(p *model.ProviderProfile) *providerProfileResponse {
	if p == nil {
		return nil
	}
	return &providerProfileResponse{
		ID:              p.ID,
		Bio:             p.Bio,
		PublicPhone:     p.PublicPhone,
		PhotoURL:        p.PhotoURL,
		Address:         toAddress(p.Address),
		Location:        p.LocationLabel(),
		Available24h:    p.Available24h,
		HasOwnMaterials: p.HasOwnMaterials,
		WorksWeekends:   p.WorksWeekends,
		RatingAverage:   p.RatingAverage,
		RatingCount:     p.RatingCount,
		ProfileViews:    p.ProfileViews,
		ServiceCount:    p.ServiceCount,
		Services:        service.ServiceViews(p.ProviderServices),
	}
}

type accountResponse struct {
	ID              uuid.UUID                `json:"id"`
	Email           string                   `json:"email"`
	FullName        string                   `json:"full_name"`
	BirthDate       *string                  `json:"birth_date"`
	Gender          model.Gender             `json:"gender"`
	Role            model.Role               `json:"role"`
	CreatedAt       time.Time                `json:"created_at"`
	ClientProfile   *clientProfileResponse   `json:"client_profile,omitempty"`
	ProviderProfile *providerProfileResponse `json:"provider_profile,omitempty"`
}

func toAccount(a *model.Account) accountResponse {
	out := accountResponse{
		ID:              a.ID,
		Email:           a.Email,
		FullName:        a.FullName,
		Gender:          a.Gender,
		Role:            a.Role,
		CreatedAt:       a.CreatedAt,
		ClientProfile:   toClientProfile(a.ClientProfile),
		ProviderProfile: toProviderProfile(a.ProviderProfile),
	}
	if a.BirthDate != nil {
		s := time.Time(*a.BirthDate).Format(dateLayout)
		out.BirthDate = &s
	}
	return out
}

// providerSummaryResponse — строка выдачи поиска.
type providerSummaryResponse struct {
	ID              uuid.UUID             `json:"id"`
	AccountID       uuid.UUID             `json:"account_id"`
	Name            string                `json:"name"`
	PhotoURL        string                `json:"photo"`
	Location        string                `json:"location"`
	Available24h    bool                  `json:"available_24h"`
	HasOwnMaterials bool                  `json:"has_own_materials"`
	WorksWeekends   bool                  `json:"works_weekends"`
	RatingAverage   float64               `json:"rating_average"`
	RatingCount     int                   `json:"rating_count"`
	ServiceCount    int                   `json:"service_count"`
	Services        []service.ServiceView `json:"services"`
	Distance        *float64              `json:"distance_km"`
}

func toProviderSummary(s service.ProviderSummary) providerSummaryResponse {
	p := s.Profile
	out := providerSummaryResponse{
		ID:              p.ID,
		AccountID:       p.AccountID,
		PhotoURL:        p.PhotoURL,
		Location:        p.LocationLabel(),
		Available24h:    p.Available24h,
		HasOwnMaterials: p.HasOwnMaterials,
		WorksWeekends:   p.WorksWeekends,
		RatingAverage:   p.RatingAverage,
		RatingCount:     p.RatingCount,
		ServiceCount:    p.ServiceCount,
		Services:        service.ServiceViews(p.ProviderServices),
	}
	if p.Account != nil {
		out.Name = p.Account.FullName
	}
	if s.Distance != nil {
		d := geo.Round(*s.Distance, 2)
		out.Distance = &d
	}
	return out
}

func toProviderPage(page listing.Page[service.ProviderSummary]) listing.Page[providerSummaryResponse] {
	return listing.Map(page, toProviderSummary)
}

type categoryResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IconURL     string            `json:"icon"`
	Services    []serviceResponse `json:"services"`
}

type serviceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CategoryID  uuid.UUID `json:"category_id"`
	Description string    `json:"description"`
}

func toService(s model.Service) serviceResponse {
	return serviceResponse{ID: s.ID, Name: s.Name, CategoryID: s.CategoryID, Description: s.Description}
}

func toCategory(c model.ServiceCategory) categoryResponse {
	out := categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IconURL:     c.IconURL,
		Services:    make([]serviceResponse, 0, len(c.Services)),
	}
	for _, s := range c.Services {
		out.Services = append(out.Services, toService(s))
	}
	return out
}

type contactResponse struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	ClientName   string     `json:"client_name"`
	ProviderID   uuid.UUID  `json:"provider_id"`
	ProviderName string     `json:"provider_name"`
	ServiceID    uuid.UUID  `json:"service_id"`
	ServiceName  string     `json:"service_name"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at"`
	Rated        bool       `json:"rated"`
	CreatedAt    time.Time  `json:"created_at"`
	WhatsAppLink string     `json:"whatsapp_link,omitempty"`
}

func toContact(c *model.ContactRequest) contactResponse {
	out := contactResponse{
		ID:          c.ID,
		ClientID:    c.ClientID,
		ProviderID:  c.ProviderID,
		ServiceID:   c.ServiceID,
		Completed:   c.Completed,
		CompletedAt: c.CompletedAt,
		Rated:       c.Rated(),
		CreatedAt:   c.CreatedAt,
	}
	if c.Client != nil {
		out.ClientName = c.Client.FullName
	}
	if c.Provider != nil {
		out.ProviderName = c.Provider.FullName
	}
	if c.Service != nil {
		out.ServiceName = c.Service.Name
	}
	return out
}

func toContacts(items []model.ContactRequest) []contactResponse {
	out := make([]contactResponse, 0, len(items))
	for i := range items {
		out = append(out, toContact(&items[i]))
	}
	return out
}

type ratingResponse struct {
	ID               uuid.UUID `json:"id"`
	ContactRequestID uuid.UUID `json:"contact_request_id"`
	ProviderID       uuid.UUID `json:"provider_id"`
	ClientName       string    `json:"client_name"`
	ServiceName      string    `json:"service_name"`
	Score            int       `json:"score"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
}

func toRating(r *model.Rating) ratingResponse {
	out := ratingResponse{
		ID:               r.ID,
		ContactRequestID: r.ContactRequestID,
		Score:            r.Score,
		Comment:          r.Comment,
		CreatedAt:        r.CreatedAt,
	}
	if c := r.ContactRequest; c != nil {
		out.ProviderID = c.ProviderID
		if c.Client != nil {
			out.ClientName = c.Client.FullName
		}
		if c.Service != nil {
			out.ServiceName = c.Service.Name
		}
	}
	return out
}

type ratingListResponse struct {
	Stats   service.RatingStats `json:"stats"`
	Results []ratingResponse    `json:"results"`
}

func toPortfolio(it model.PortfolioItem) service.PortfolioView {
	return service.PortfolioView{
		ID:          it.ID,
		ImageURL:    it.ImageURL,
		Description: it.Description,
		CreatedAt:   it.CreatedAt,
	}
}
