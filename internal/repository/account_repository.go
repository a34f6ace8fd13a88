package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	// GetByID возвращает аккаунт вместе с профилем (любой роли).
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByIDUnscoped видит и мягко удалённые аккаунты.
	GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// MarkDeleted переводит активный аккаунт в удалённые; false — аккаунт уже был удалён.
	MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
}

type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// NormalizeEmail — email храним в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormAccountRepository) Create(ctx context.Context, account *model.Account) error {
	account.Email = NormalizeEmail(account.Email)
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *GormAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).
		Preload("ClientProfile").
		Preload("ProviderProfile").
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("ClientProfile", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("ProviderProfile", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAccountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	// удалённые аккаунты тоже держат уникальный email
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Account{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormAccountRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAccountRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Account{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(model.SoftDeleteUpdates(at))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormAccountRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Delete(&model.Account{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
