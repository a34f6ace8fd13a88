package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

type PortfolioRepository interface {
	ListByProvider(ctx context.Context, providerProfileID uuid.UUID) ([]model.PortfolioItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PortfolioItem, error)
	Create(ctx context.Context, item *model.PortfolioItem) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkDeletedByProvider(ctx context.Context, providerProfileID uuid.UUID, at time.Time) (int64, error)
}

type GormPortfolioRepository struct {
	db *gorm.DB
}

func NewGormPortfolioRepository(db *gorm.DB) *GormPortfolioRepository {
	return &GormPortfolioRepository{db: db}
}

func (r *GormPortfolioRepository) ListByProvider(ctx context.Context, providerProfileID uuid.UUID) ([]model.PortfolioItem, error) {
	var items []model.PortfolioItem
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerProfileID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PortfolioItem, error) {
	var it model.PortfolioItem
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *GormPortfolioRepository) Create(ctx context.Context, item *model.PortfolioItem) error {
	return r.db.WithContext(ctx).Omit("Provider").Create(item).Error
}

func (r *GormPortfolioRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.PortfolioItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *GormPortfolioRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.PortfolioItem{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(model.SoftDeleteUpdates(at))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormPortfolioRepository) MarkDeletedByProvider(ctx context.Context, providerProfileID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.PortfolioItem{}).
		Where("provider_id = ? AND is_deleted = ?", providerProfileID, false).
		Updates(model.SoftDeleteUpdates(at))
	return res.RowsAffected, res.Error
}
