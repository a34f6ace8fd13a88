package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinScore = 1
	MaxScore = 5
)

// ratings — ровно одна оценка на заявку. Мягкого удаления нет: удалённая оценка
// физически исчезает и не должна попадать в агрегат.
type Rating struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ContactRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Score            int       `gorm:"not null;check:chk_ratings_score,score >= 1 AND score <= 5"`
	Comment          string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	ContactRequest *ContactRequest `gorm:"foreignKey:ContactRequestID"`
}

func (r *Rating) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
