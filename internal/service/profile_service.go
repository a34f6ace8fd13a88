package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

// AddressResolver — CEP (+ улица/номер) в координаты. Не возвращает ошибок.
type AddressResolver interface {
	Resolve(ctx context.Context, q geo.AddressQuery) (geo.Address, bool)
}

// ProfileService сохраняет профили и решает, нужно ли заново геокодировать адрес.
type ProfileService struct {
	db       *gorm.DB
	resolver AddressResolver
	cache    ProviderCache
	logger   *zap.Logger
}

func NewProfileService(db *gorm.DB, resolver AddressResolver, cache ProviderCache, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{db: db, resolver: resolver, cache: cacheOrNoop(cache), logger: logger}
}

// AddressInput — частичное обновление адреса; nil — поле не меняется.
type AddressInput struct {
	PostalCode *string
	Street     *string
	Number     *string
	Complement *string
}

type ClientProfileInput struct {
	ContactPhone *string
	PhotoURL     *string
	Address      AddressInput
}

type ProviderProfileInput struct {
	Bio             *string
	PublicPhone     *string
	PhotoURL        *string
	Available24h    *bool
	HasOwnMaterials *bool
	WorksWeekends   *bool
	Address         AddressInput
}

// SaveClientProfile создаёт профиль клиента или обновляет существующий.
func (s *ProfileService) SaveClientProfile(ctx context.Context, accountID uuid.UUID, in ClientProfileInput) (*model.ClientProfile, error) {
	account, err := repository.NewGormAccountRepository(s.db).GetByID(ctx, accountID)
	if err != nil {
		return nil, notFound(err, "get account")
	}
	if err := account.ValidateProfileKind(model.ProfileClient); err != nil {
		return nil, NewValidationError(NonFieldErrors, "Esta conta não pode ter um perfil de cliente.")
	}

	var prev *model.Address
	profile := &model.ClientProfile{AccountID: accountID}
	if account.ClientProfile != nil {
		profile = account.ClientProfile
		addr := profile.Address
		prev = &addr
	}

	v := &ValidationError{}
	if in.ContactPhone != nil {
		profile.ContactPhone = validatePhone(v, "contact_phone", *in.ContactPhone)
	}
	if in.PhotoURL != nil {
		profile.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	applyAddressInput(v, &profile.Address, in.Address, prev == nil)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// геокодер может думать секундами: транзакцию открываем уже после него
	s.resolveAddress(ctx, &profile.Address, prev)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewGormClientRepository(tx).Save(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("save client profile: %w", err)
	}
	return profile, nil
}

// UpdateClientProfile — как SaveClientProfile, но профиль уже должен существовать.
func (s *ProfileService) UpdateClientProfile(ctx context.Context, accountID uuid.UUID, in ClientProfileInput) (*model.ClientProfile, error) {
	if _, err := repository.NewGormClientRepository(s.db).GetByAccountID(ctx, accountID); err != nil {
		return nil, notFound(err, "get client profile")
	}
	return s.SaveClientProfile(ctx, accountID, in)
}

// SaveProviderProfile создаёт профиль исполнителя или обновляет существующий.
func (s *ProfileService) SaveProviderProfile(ctx context.Context, accountID uuid.UUID, in ProviderProfileInput) (*model.ProviderProfile, error) {
	account, err := repository.NewGormAccountRepository(s.db).GetByID(ctx, accountID)
	if err != nil {
		return nil, notFound(err, "get account")
	}
	if err := account.ValidateProfileKind(model.ProfileProvider); err != nil {
		return nil, NewValidationError(NonFieldErrors, "Esta conta não pode ter um perfil de prestador.")
	}

	var prev *model.Address
	profile := &model.ProviderProfile{AccountID: accountID}
	if account.ProviderProfile != nil {
		profile = account.ProviderProfile
		addr := profile.Address
		prev = &addr
	}

	v := &ValidationError{}
	if in.PublicPhone != nil {
		profile.PublicPhone = validatePhone(v, "public_phone", *in.PublicPhone)
	}
	if in.Bio != nil {
		profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.PhotoURL != nil {
		profile.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	if in.Available24h != nil {
		profile.Available24h = *in.Available24h
	}
	if in.HasOwnMaterials != nil {
		profile.HasOwnMaterials = *in.HasOwnMaterials
	}
	if in.WorksWeekends != nil {
		profile.WorksWeekends = *in.WorksWeekends
	}
	applyAddressInput(v, &profile.Address, in.Address, prev == nil)
	if err := v.Err(); err != nil {
		return nil, err
	}

	s.resolveAddress(ctx, &profile.Address, prev)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewGormProviderRepository(tx).Save(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("save provider profile: %w", err)
	}

	if err := s.cache.InvalidateProvider(ctx, profile.ID); err != nil {
		s.logger.Warn("provider cache invalidation failed", zap.String("provider_id", profile.ID.String()), zap.Error(err))
	}
	return profile, nil
}

// UpdateProviderProfile — как SaveProviderProfile, но профиль уже должен существовать.
func (s *ProfileService) UpdateProviderProfile(ctx context.Context, accountID uuid.UUID, in ProviderProfileInput) (*model.ProviderProfile, error) {
	_, err := repository.NewGormProviderRepository(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, notFound(err, "get provider profile")
	}
	return s.SaveProviderProfile(ctx, accountID, in)
}

// needsResolution: новый профиль, изменились CEP/улица/номер, либо нет координат или города.
func needsResolution(prev *model.Address, next model.Address) bool {
	if prev == nil {
		return true
	}
	if prev.PostalCode != next.PostalCode || prev.Street != next.Street || prev.Number != next.Number {
		return true
	}
	return next.Latitude == nil || next.City == ""
}

// resolveAddress перезаписывает вычисляемые поля только при успехе; иначе остаются прежние.
func (s *ProfileService) resolveAddress(ctx context.Context, addr *model.Address, prev *model.Address) {
	if s == nil || s.resolver == nil || !needsResolution(prev, *addr) {
		return
	}

	res, ok := s.resolver.Resolve(ctx, geo.AddressQuery{
		PostalCode: addr.PostalCode,
		Street:     addr.Street,
		Number:     addr.Number,
	})
	if !ok {
		s.logger.Info("address not resolved, keeping previous values", zap.String("postal_code", addr.PostalCode))
		return
	}

	lat, lon := res.Latitude, res.Longitude
	addr.Latitude = &lat
	addr.Longitude = &lon
	addr.City = res.City
	addr.Neighborhood = res.Neighborhood
	addr.State = res.State
}

// applyAddressInput переносит изменения адреса; для нового профиля CEP, улица и номер обязательны.
func applyAddressInput(v *ValidationError, addr *model.Address, in AddressInput, isNew bool) {
	if in.PostalCode != nil {
		addr.PostalCode = validatePostalCode(v, "postal_code", *in.PostalCode)
	} else if isNew {
		v.Add("postal_code", "Este campo é obrigatório.")
	}
	if in.Street != nil {
		addr.Street = required(v, "street", *in.Street)
	} else if isNew {
		v.Add("street", "Este campo é obrigatório.")
	}
	if in.Number != nil {
		addr.Number = required(v, "number", *in.Number)
	} else if isNew {
		v.Add("number", "Este campo é obrigatório.")
	}
	if in.Complement != nil {
		addr.Complement = strings.TrimSpace(*in.Complement)
	}
}
