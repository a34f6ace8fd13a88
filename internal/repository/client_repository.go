package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

type ClientRepository interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.ClientProfile, error)
	Save(ctx context.Context, profile *model.ClientProfile) error
	MarkDeletedByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error)

	ListFavorites(ctx context.Context, clientProfileID uuid.UUID) ([]model.ProviderProfile, error)
	IsFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) (bool, error)
	AddFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) error
	RemoveFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) error
}

type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.ClientProfile, error) {
	var c model.ClientProfile
	if err := r.db.WithContext(ctx).First(&c, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Save создаёт профиль или обновляет все его колонки.
func (r *GormClientRepository) Save(ctx context.Context, profile *model.ClientProfile) error {
	if profile.ID == uuid.Nil {
		return r.db.WithContext(ctx).Omit("Favorites", "Account").Create(profile).Error
	}
	return r.db.WithContext(ctx).Omit("Favorites", "Account").Save(profile).Error
}

func (r *GormClientRepository) MarkDeletedByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.ClientProfile{}).
		Where("account_id = ? AND is_deleted = ?", accountID, false).
		Updates(model.SoftDeleteUpdates(at))
	return res.RowsAffected, res.Error
}

func (r *GormClientRepository) ListFavorites(ctx context.Context, clientProfileID uuid.UUID) ([]model.ProviderProfile, error) {
	var providers []model.ProviderProfile
	err := r.db.WithContext(ctx).
		Joins("JOIN client_favorites ON client_favorites.provider_profile_id = provider_profiles.id").
		Where("client_favorites.client_profile_id = ?", clientProfileID).
		Preload("Account").
		Order("provider_profiles.rating_average DESC").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *GormClientRepository) IsFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("client_favorites").
		Where("client_profile_id = ? AND provider_profile_id = ?", clientProfileID, providerProfileID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormClientRepository) AddFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO client_favorites (client_profile_id, provider_profile_id) VALUES (?, ?)",
		clientProfileID, providerProfileID,
	).Error
}

func (r *GormClientRepository) RemoveFavorite(ctx context.Context, clientProfileID, providerProfileID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM client_favorites WHERE client_profile_id = ? AND provider_profile_id = ?",
		clientProfileID, providerProfileID,
	).Error
}
