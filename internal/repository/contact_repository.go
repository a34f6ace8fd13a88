package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

type ContactRepository interface {
	// Создать новую заявку.
	Create(ctx context.Context, contact *model.ContactRequest) error
	// Получить заявку по ID вместе с оценкой.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ContactRequest, error)
	// Отметить заявку выполненной.
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	// Заявки исполнителя / клиента, новые сверху.
	ListByProvider(ctx context.Context, providerAccountID uuid.UUID) ([]model.ContactRequest, error)
	ListByClient(ctx context.Context, clientAccountID uuid.UUID) ([]model.ContactRequest, error)
	CountCompletedByProvider(ctx context.Context, providerAccountID uuid.UUID) (int64, error)

	MarkDeletedByClient(ctx context.Context, clientAccountID uuid.UUID, at time.Time) (int64, error)
	MarkDeletedByProvider(ctx context.Context, providerAccountID uuid.UUID, at time.Time) (int64, error)
}

type GormContactRepository struct {
	db *gorm.DB
}

func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) Create(ctx context.Context, contact *model.ContactRequest) error {
	return r.db.WithContext(ctx).Omit("Client", "Provider", "Service", "Rating").Create(contact).Error
}

func (r *GormContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ContactRequest, error) {
	var c model.ContactRequest
	err := r.db.WithContext(ctx).
		Preload("Rating").
		Preload("Client").
		Preload("Provider").
		Preload("Service").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormContactRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ContactRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed":    true,
			"completed_at": at,
		}).Error
}

func (r *GormContactRepository) ListByProvider(ctx context.Context, providerAccountID uuid.UUID) ([]model.ContactRequest, error) {
	var contacts []model.ContactRequest
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerAccountID).
		Preload("Client").
		Preload("Service").
		Preload("Rating").
		Order("created_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *GormContactRepository) ListByClient(ctx context.Context, clientAccountID uuid.UUID) ([]model.ContactRequest, error) {
	var contacts []model.ContactRequest
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientAccountID).
		Preload("Provider").
		Preload("Service").
		Preload("Rating").
		Order("created_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *GormContactRepository) CountCompletedByProvider(ctx context.Context, providerAccountID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ContactRequest{}).
		Where("provider_id = ? AND completed = ?", providerAccountID, true).
		Count(&total).Error
	return total, err
}

func (r *GormContactRepository) MarkDeletedByClient(ctx context.Context, clientAccountID uuid.UUID, at time.Time) (int64, error) {
	return r.markDeleted(ctx, "client_id", clientAccountID, at)
}

func (r *GormContactRepository) MarkDeletedByProvider(ctx context.Context, providerAccountID uuid.UUID, at time.Time) (int64, error) {
	return r.markDeleted(ctx, "provider_id", providerAccountID, at)
}

func (r *GormContactRepository) markDeleted(ctx context.Context, column string, accountID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.ContactRequest{}).
		Where(column+" = ? AND is_deleted = ?", accountID, false).
		Updates(model.SoftDeleteUpdates(at))
	return res.RowsAffected, res.Error
}
