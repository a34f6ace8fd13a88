package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRatingAverage — средняя оценка до первой оценки.
const DefaultRatingAverage = 5.0

// Address — адрес и вычисляемые из него гео-поля.
type Address struct {
	PostalCode   string   `gorm:"type:varchar(9);not null;index"`
	Street       string   `gorm:"type:varchar(150)"`
	Number       string   `gorm:"type:varchar(20)"`
	Complement   string   `gorm:"type:varchar(100)"`
	City         string   `gorm:"type:varchar(100)"`
	Neighborhood string   `gorm:"type:varchar(100)"`
	State        string   `gorm:"type:varchar(2)"`
	Latitude     *float64 `gorm:"type:decimal(10,8)"`
	Longitude    *float64 `gorm:"type:decimal(11,8)"`
}

// HasCoordinates — заданы обе координаты.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// client_profiles
type ClientProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	ContactPhone string  `gorm:"type:varchar(11)"`
	Address      Address `gorm:"embedded"`
	PhotoURL     string  `gorm:"type:varchar(512)"`

	SoftDelete

	CreatedAt time.Time
	UpdatedAt time.Time

	Account   *Account          `gorm:"foreignKey:AccountID"`
	Favorites []ProviderProfile `gorm:"many2many:client_favorites;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *ClientProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// provider_profiles
type ProviderProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Bio         string  `gorm:"type:text"`
	PublicPhone string  `gorm:"type:varchar(11)"`
	Address     Address `gorm:"embedded"`
	PhotoURL    string  `gorm:"type:varchar(512)"`

	Available24h    bool `gorm:"column:available_24h;not null;default:false;index"`
	HasOwnMaterials bool `gorm:"not null;default:false;index"`
	WorksWeekends   bool `gorm:"not null;default:false;index"`

	// Денормализованный кэш; пересчитывается агрегатором оценок.
	RatingAverage float64 `gorm:"type:decimal(3,2);not null;default:5;index"`
	RatingCount   int     `gorm:"not null;default:0"`
	ProfileViews  int     `gorm:"not null;default:0"`
	ServiceCount  int     `gorm:"not null;default:0"`

	SoftDelete

	CreatedAt time.Time
	UpdatedAt time.Time

	Account          *Account          `gorm:"foreignKey:AccountID"`
	ProviderServices []ProviderService `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Portfolio        []PortfolioItem   `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *ProviderProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.RatingAverage == 0 && p.RatingCount == 0 {
		p.RatingAverage = DefaultRatingAverage
	}
	return nil
}

// LocationLabel — "город, район, штат" или заглушка.
func (p *ProviderProfile) LocationLabel() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Address.City, p.Address.Neighborhood, p.Address.State} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "Localização não informada"
	}
	out := parts[0]
	for _, s := range parts[1:] {
		out += ", " + s
	}
	return out
}
