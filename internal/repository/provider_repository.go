package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
)

// ProviderQuery — фильтры поиска исполнителей. nil/пустое значение — фильтр не применяется.
type ProviderQuery struct {
	ServiceID       *uuid.UUID
	CategoryID      *uuid.UUID
	HasOwnMaterials *bool
	Available24h    *bool
	WorksWeekends   *bool
	MinRating       *float64
	Name            string
	ServiceName     string
	BestRated       bool
}

type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProviderProfile, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.ProviderProfile, error)
	// GetDetail — профиль с аккаунтом, услугами и портфолио.
	GetDetail(ctx context.Context, id uuid.UUID) (*model.ProviderProfile, error)
	Save(ctx context.Context, profile *model.ProviderProfile) error
	Search(ctx context.Context, q ProviderQuery) ([]model.ProviderProfile, error)

	IncrementViews(ctx context.Context, id uuid.UUID) error
	UpdateRatingCache(ctx context.Context, accountID uuid.UUID, average float64, count int) error
	UpdateServiceCount(ctx context.Context, accountID uuid.UUID, count int) error

	AddServices(ctx context.Context, profileID uuid.UUID, serviceIDs []uuid.UUID) error
	MarkDeletedByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) (*uuid.UUID, error)
	MarkServicesDeleted(ctx context.Context, profileID uuid.UUID, at time.Time) (int64, error)
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// кэш-поля пишет только агрегатор, обычное сохранение их не трогает
var providerCacheColumns = []string{"RatingAverage", "RatingCount", "ProfileViews", "ServiceCount"}

func (r *GormProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ProviderProfile, error) {
	var p model.ProviderProfile
	if err := r.db.WithContext(ctx).Preload("Account").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.ProviderProfile, error) {
	var p model.ProviderProfile
	if err := r.db.WithContext(ctx).Preload("Account").First(&p, "account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.ProviderProfile, error) {
	var p model.ProviderProfile
	err := r.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = provider_profiles.account_id AND accounts.deleted_at IS NULL").
		Preload("Account").
		Preload("ProviderServices.Service.Category").
		Preload("Portfolio", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&p, "provider_profiles.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) Save(ctx context.Context, profile *model.ProviderProfile) error {
	omit := append([]string{"Account", "ProviderServices", "Portfolio"}, providerCacheColumns...)
	if profile.ID == uuid.Nil {
		return r.db.WithContext(ctx).Omit("Account", "ProviderServices", "Portfolio").Create(profile).Error
	}
	return r.db.WithContext(ctx).Omit(omit...).Save(profile).Error
}

func (r *GormProviderRepository) Search(ctx context.Context, q ProviderQuery) ([]model.ProviderProfile, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.ProviderProfile{}).
		Joins("JOIN accounts ON accounts.id = provider_profiles.account_id AND accounts.deleted_at IS NULL")

	if q.ServiceID != nil {
		tx = tx.Where(`EXISTS (SELECT 1 FROM provider_services ps
			WHERE ps.provider_id = provider_profiles.id AND ps.deleted_at IS NULL AND ps.service_id = ?)`, *q.ServiceID)
	}
	if q.CategoryID != nil {
		tx = tx.Where(`EXISTS (SELECT 1 FROM provider_services ps JOIN services s ON s.id = ps.service_id
			WHERE ps.provider_id = provider_profiles.id AND ps.deleted_at IS NULL AND s.category_id = ?)`, *q.CategoryID)
	}
	if name := strings.TrimSpace(q.ServiceName); name != "" {
		tx = tx.Where(`EXISTS (SELECT 1 FROM provider_services ps JOIN services s ON s.id = ps.service_id
			WHERE ps.provider_id = provider_profiles.id AND ps.deleted_at IS NULL AND LOWER(s.name) LIKE ? ESCAPE '\')`, likePattern(name))
	}
	if name := strings.TrimSpace(q.Name); name != "" {
		tx = tx.Where(`LOWER(accounts.full_name) LIKE ? ESCAPE '\'`, likePattern(name))
	}
	if q.HasOwnMaterials != nil {
		tx = tx.Where("provider_profiles.has_own_materials = ?", *q.HasOwnMaterials)
	}
	if q.Available24h != nil {
		tx = tx.Where("provider_profiles.available_24h = ?", *q.Available24h)
	}
	if q.WorksWeekends != nil {
		tx = tx.Where("provider_profiles.works_weekends = ?", *q.WorksWeekends)
	}
	if q.MinRating != nil {
		tx = tx.Where("provider_profiles.rating_average >= ?", *q.MinRating)
	}

	if q.BestRated {
		tx = tx.Order("provider_profiles.rating_average DESC")
	}
	tx = tx.Order("provider_profiles.created_at DESC")

	var providers []model.ProviderProfile
	err := tx.
		Preload("Account").
		Preload("ProviderServices.Service").
		Find(&providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *GormProviderRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.ProviderProfile{}).
		Where("id = ?", id).
		UpdateColumn("profile_views", gorm.Expr("profile_views + 1")).Error
}

// UpdateRatingCache пишет только две кэш-колонки, без updated_at.
func (r *GormProviderRepository) UpdateRatingCache(ctx context.Context, accountID uuid.UUID, average float64, count int) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProviderProfile{}).
		Where("account_id = ?", accountID).
		UpdateColumns(map[string]any{
			"rating_average": average,
			"rating_count":   count,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProviderRepository) UpdateServiceCount(ctx context.Context, accountID uuid.UUID, count int) error {
	return r.db.WithContext(ctx).
		Model(&model.ProviderProfile{}).
		Where("account_id = ?", accountID).
		UpdateColumn("service_count", count).Error
}

func (r *GormProviderRepository) AddServices(ctx context.Context, profileID uuid.UUID, serviceIDs []uuid.UUID) error {
	if len(serviceIDs) == 0 {
		return nil
	}
	links := make([]model.ProviderService, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		links = append(links, model.ProviderService{ProviderID: profileID, ServiceID: id})
	}
	return r.db.WithContext(ctx).Omit("Provider", "Service").Create(&links).Error
}

// MarkDeletedByAccount возвращает id профиля, если он был активен.
func (r *GormProviderRepository) MarkDeletedByAccount(ctx context.Context, accountID uuid.UUID, at time.Time) (*uuid.UUID, error) {
	var p model.ProviderProfile
	err := r.db.WithContext(ctx).
		Unscoped().
		Select("id").
		Where("account_id = ? AND is_deleted = ?", accountID, false).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Unscoped().
		Model(&model.ProviderProfile{}).
		Where("id = ? AND is_deleted = ?", p.ID, false).
		Updates(model.SoftDeleteUpdates(at)).Error
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

func (r *GormProviderRepository) MarkServicesDeleted(ctx context.Context, profileID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.ProviderService{}).
		Where("provider_id = ? AND is_deleted = ?", profileID, false).
		Updates(model.SoftDeleteUpdates(at))
	return res.RowsAffected, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern — подстрока для LIKE ... ESCAPE '\'; пользовательские % и _ экранируются.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
