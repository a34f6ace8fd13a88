package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoftDelete — флаг + отметка времени удаления.
// gorm.DeletedAt включает дефолтный скоуп (deleted_at IS NULL), Unscoped() — "все записи".
type SoftDelete struct {
	IsDeleted bool           `gorm:"not null;default:false;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Deleted сообщает, помечена ли запись как удалённая.
func (s SoftDelete) Deleted() bool {
	return s.IsDeleted || s.DeletedAt.Valid
}

// SoftDeleteUpdates — набор колонок для Updates при мягком удалении.
func SoftDeleteUpdates(at time.Time) map[string]any {
	return map[string]any{
		"is_deleted": true,
		"deleted_at": at,
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
