package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// contact_requests — клиент связался с исполнителем по конкретной услуге.
type ContactRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ClientID   uuid.UUID `gorm:"type:uuid;not null;index"` // аккаунт клиента
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"` // аккаунт исполнителя
	ServiceID  uuid.UUID `gorm:"type:uuid;not null;index"`

	Completed   bool `gorm:"not null;default:false;index"`
	CompletedAt *time.Time

	SoftDelete

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Client   *Account `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Provider *Account `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service  *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Rating   *Rating  `gorm:"foreignKey:ContactRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (c *ContactRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Rated — по заявке уже оставлена оценка (Rating должен быть загружен).
func (c *ContactRequest) Rated() bool {
	return c.Rating != nil
}
