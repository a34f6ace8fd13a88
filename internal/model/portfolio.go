package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// portfolio_items
type PortfolioItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index"` // provider_profiles.id
	ImageURL    string    `gorm:"type:varchar(512);not null"`
	Description string    `gorm:"type:varchar(255)"`

	SoftDelete

	CreatedAt time.Time
	UpdatedAt time.Time

	Provider *ProviderProfile `gorm:"foreignKey:ProviderID"`
}

func (p *PortfolioItem) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
