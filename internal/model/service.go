package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// service_categories
type ServiceCategory struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IconURL     string `gorm:"type:varchar(512)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Services []Service `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c *ServiceCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// services
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Category *ServiceCategory `gorm:"foreignKey:CategoryID"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// provider_services — связь исполнителя с услугами, с мягким удалением.
type ProviderService struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_provider_service"`
	ServiceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_provider_service;index"`

	SoftDelete

	CreatedAt time.Time
	UpdatedAt time.Time

	Provider *ProviderProfile `gorm:"foreignKey:ProviderID"`
	Service  *Service         `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ps *ProviderService) BeforeCreate(*gorm.DB) error {
	ensureID(&ps.ID)
	return nil
}
