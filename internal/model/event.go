package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAccountSoftDeleted EventType = "account_soft_deleted"
	EventTypeContactCreated     EventType = "contact_created"
	EventTypeContactCompleted   EventType = "contact_completed"
	EventTypeRatingCreated      EventType = "rating_created"
	EventTypeRatingRemoved      EventType = "rating_removed"
)

// events — события аудита, пишутся в той же транзакции, что и основное изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"index"`

	AccountID *uuid.UUID `gorm:"type:uuid;index"`
	SubjectID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// NewEvent собирает событие; details сериализуется в JSON, ошибка маршалинга даёт пустой объект.
func NewEvent(t EventType, accountID, subjectID *uuid.UUID, details map[string]any) *Event {
	raw, err := json.Marshal(details)
	if err != nil || details == nil {
		raw = []byte("{}")
	}
	return &Event{
		EventType: t,
		AccountID: accountID,
		SubjectID: subjectID,
		Details:   datatypes.JSON(raw),
	}
}
