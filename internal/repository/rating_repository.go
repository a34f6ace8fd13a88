package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

// RatingOrder — порядок выдачи оценок.
type RatingOrder string

const (
	RatingOrderRecent  RatingOrder = "recent"
	RatingOrderHighest RatingOrder = "highest"
	RatingOrderLowest  RatingOrder = "lowest"
)

// RatingQuery — фильтры списка оценок.
type RatingQuery struct {
	ProviderAccountID *uuid.UUID
	MinScore          int
	Order             RatingOrder
	Limit             int
}

// RatingAggregate — количество и среднее оценок исполнителя.
type RatingAggregate struct {
	Count   int64
	Average *float64 // nil, если оценок нет
}

type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Rating, error)
	ExistsForContact(ctx context.Context, contactID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q RatingQuery) ([]model.Rating, error)
	// Aggregate — count и avg по всем оценкам заявок исполнителя.
	Aggregate(ctx context.Context, providerAccountID uuid.UUID) (RatingAggregate, error)
	// Distribution — количество оценок по каждому баллу 1..5.
	Distribution(ctx context.Context, q RatingQuery) (map[int]int64, error)
}

type GormRatingRepository struct {
	db *gorm.DB
}

func NewGormRatingRepository(db *gorm.DB) *GormRatingRepository {
	return &GormRatingRepository{db: db}
}

func (r *GormRatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	return r.db.WithContext(ctx).Omit("ContactRequest").Create(rating).Error
}

func (r *GormRatingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Rating, error) {
	var rt model.Rating
	err := r.db.WithContext(ctx).
		Preload("ContactRequest", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("ContactRequest.Client").
		Preload("ContactRequest.Service").
		First(&rt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRatingRepository) ExistsForContact(ctx context.Context, contactID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Where("contact_request_id = ?", contactID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRatingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Rating{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRatingRepository) filtered(ctx context.Context, q RatingQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Joins("JOIN contact_requests ON contact_requests.id = ratings.contact_request_id")
	if q.ProviderAccountID != nil {
		tx = tx.Where("contact_requests.provider_id = ?", *q.ProviderAccountID)
	}
	if q.MinScore > 0 {
		tx = tx.Where("ratings.score >= ?", q.MinScore)
	}
	return tx
}

func (r *GormRatingRepository) List(ctx context.Context, q RatingQuery) ([]model.Rating, error) {
	tx := r.filtered(ctx, q)
	switch q.Order {
	case RatingOrderHighest:
		tx = tx.Order("ratings.score DESC").Order("ratings.created_at DESC")
	case RatingOrderLowest:
		tx = tx.Order("ratings.score ASC").Order("ratings.created_at DESC")
	default:
		tx = tx.Order("ratings.created_at DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var ratings []model.Rating
	err := tx.
		Preload("ContactRequest", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("ContactRequest.Client").
		Preload("ContactRequest.Service").
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *GormRatingRepository) Aggregate(ctx context.Context, providerAccountID uuid.UUID) (RatingAggregate, error) {
	var row struct {
		Total   int64
		Average sql.NullFloat64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Select("COUNT(ratings.id) AS total, AVG(ratings.score) AS average").
		Joins("JOIN contact_requests ON contact_requests.id = ratings.contact_request_id").
		Where("contact_requests.provider_id = ?", providerAccountID).
		Scan(&row).Error
	if err != nil {
		return RatingAggregate{}, err
	}

	agg := RatingAggregate{Count: row.Total}
	if row.Average.Valid && row.Total > 0 {
		avg := row.Average.Float64
		agg.Average = &avg
	}
	return agg, nil
}

func (r *GormRatingRepository) Distribution(ctx context.Context, q RatingQuery) (map[int]int64, error) {
	var rows []struct {
		Score int
		Total int64
	}
	err := r.filtered(ctx, q).
		Select("ratings.score AS score, COUNT(ratings.id) AS total").
		Group("ratings.score").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int]int64, model.MaxScore)
	for s := model.MinScore; s <= model.MaxScore; s++ {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Score] = row.Total
	}
	return out, nil
}
