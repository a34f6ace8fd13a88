package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

// AccountService — регистрация, редактирование и удаление аккаунтов.
type AccountService struct {
	db       *gorm.DB
	profiles *ProfileService
	cache    ProviderCache
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

func NewAccountService(db *gorm.DB, profiles *ProfileService, cache ProviderCache, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		db:       db,
		profiles: profiles,
		cache:    cacheOrNoop(cache),
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithHashCost меняет стоимость bcrypt (в тестах — bcrypt.MinCost).
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// AccountInput — общие поля регистрации.
type AccountInput struct {
	Email           string
	FullName        string
	BirthDate       *time.Time
	Gender          model.Gender
	NationalID      string
	Password        string
	PasswordConfirm string
}

type RegisterClientInput struct {
	AccountInput
	ContactPhone string
	PostalCode   string
	Street       string
	Number       string
	Complement   string
}

type RegisterProviderInput struct {
	AccountInput
	PublicPhone     string
	Bio             string
	PostalCode      string
	Street          string
	Number          string
	Available24h    bool
	HasOwnMaterials bool
	WorksWeekends   bool
	ServiceIDs      []uuid.UUID
}

type AccountUpdate struct {
	FullName  *string
	BirthDate *time.Time
	Gender    *model.Gender
}

func (s *AccountService) RegisterClient(ctx context.Context, in RegisterClientInput) (*model.Account, error) {
	v := &ValidationError{}
	account := s.validateAccount(v, in.AccountInput, model.RoleClient)
	profile := &model.ClientProfile{
		ContactPhone: validatePhone(v, "contact_phone", in.ContactPhone),
		Address: model.Address{
			PostalCode: validatePostalCode(v, "postal_code", in.PostalCode),
			Street:     required(v, "street", in.Street),
			Number:     required(v, "number", in.Number),
			Complement: strings.TrimSpace(in.Complement),
		},
	}
	if err := s.checkEmail(ctx, v, account.Email); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.hashPassword(account, in.Password); err != nil {
		return nil, err
	}
	s.profiles.resolveAddress(ctx, &profile.Address, nil)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormAccountRepository(tx).Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		profile.AccountID = account.ID
		if err := repository.NewGormClientRepository(tx).Save(ctx, profile); err != nil {
			return fmt.Errorf("create client profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	account.ClientProfile = profile
	s.logger.Info("client registered", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *AccountService) RegisterProvider(ctx context.Context, in RegisterProviderInput) (*model.Account, error) {
	v := &ValidationError{}
	account := s.validateAccount(v, in.AccountInput, model.RoleProvider)
	profile := &model.ProviderProfile{
		Bio:             strings.TrimSpace(in.Bio),
		PublicPhone:     validatePhone(v, "public_phone", in.PublicPhone),
		Available24h:    in.Available24h,
		HasOwnMaterials: in.HasOwnMaterials,
		WorksWeekends:   in.WorksWeekends,
		Address: model.Address{
			PostalCode: validatePostalCode(v, "postal_code", in.PostalCode),
			Street:     required(v, "street", in.Street),
			Number:     required(v, "number", in.Number),
		},
	}
	serviceIDs := uniqueIDs(in.ServiceIDs)
	if len(serviceIDs) == 0 {
		v.Add("services", "Selecione pelo menos um serviço.")
	} else {
		found, err := repository.NewGormServiceRepository(s.db).ListByIDs(ctx, serviceIDs)
		if err != nil {
			return nil, fmt.Errorf("list services: %w", err)
		}
		if len(found) != len(serviceIDs) {
			v.Add("services", "Um ou mais serviços informados não existem.")
		}
	}
	if err := s.checkEmail(ctx, v, account.Email); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.hashPassword(account, in.Password); err != nil {
		return nil, err
	}
	s.profiles.resolveAddress(ctx, &profile.Address, nil)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormAccountRepository(tx).Create(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		providers := repository.NewGormProviderRepository(tx)
		profile.AccountID = account.ID
		if err := providers.Save(ctx, profile); err != nil {
			return fmt.Errorf("create provider profile: %w", err)
		}
		if err := providers.AddServices(ctx, profile.ID, serviceIDs); err != nil {
			return fmt.Errorf("link services: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	account.ProviderProfile = profile
	s.logger.Info("provider registered",
		zap.String("account_id", account.ID.String()),
		zap.Int("services", len(serviceIDs)),
	)
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	a, err := repository.NewGormAccountRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "get account")
	}
	return a, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, id uuid.UUID, upd AccountUpdate) (*model.Account, error) {
	v := &ValidationError{}
	fields := map[string]any{}
	if upd.FullName != nil {
		fields["full_name"] = required(v, "full_name", *upd.FullName)
	}
	if upd.BirthDate != nil {
		fields["birth_date"] = datatypes.Date(*upd.BirthDate)
	}
	if upd.Gender != nil {
		if !upd.Gender.Valid() {
			v.Add("gender", "Gênero inválido.")
		}
		fields["gender"] = *upd.Gender
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := repository.NewGormAccountRepository(s.db).UpdateFields(ctx, id, fields); err != nil {
		return nil, notFound(err, "update account")
	}
	return s.Get(ctx, id)
}

// SoftDelete переводит аккаунт в удалённые и каскадно помечает зависимые записи.
// Повторный вызов для уже удалённого аккаунта ничего не делает.
func (s *AccountService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var providerProfileID *uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := repository.NewGormAccountRepository(tx)

		account, err := accounts.GetByIDUnscoped(ctx, id)
		if err != nil {
			return notFound(err, "get account")
		}
		if account.Deleted() {
			return nil
		}

		at := s.now()
		changed, err := accounts.MarkDeleted(ctx, id, at)
		if err != nil {
			return fmt.Errorf("mark account deleted: %w", err)
		}
		if !changed {
			return nil
		}

		summary, err := s.cascade(ctx, tx, id, at)
		if err != nil {
			return err
		}
		providerProfileID = summary.providerProfileID

		ev := model.NewEvent(model.EventTypeAccountSoftDeleted, &id, &id, summary.details(account.Role))
		if err := repository.NewGormEventRepository(tx).Append(ctx, ev); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if providerProfileID != nil {
		if err := s.cache.InvalidateProvider(ctx, *providerProfileID); err != nil {
			s.logger.Warn("provider cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("account soft-deleted", zap.String("account_id", id.String()))
	return nil
}

type cascadeSummary struct {
	providerProfileID *uuid.UUID
	clientProfiles    int64
	clientContacts    int64
	portfolioItems    int64
	serviceLinks      int64
	providerContacts  int64
}

func (c cascadeSummary) details(role model.Role) map[string]any {
	return map[string]any{
		"role":              role,
		"client_profiles":   c.clientProfiles,
		"client_contacts":   c.clientContacts,
		"provider_profile":  c.providerProfileID != nil,
		"portfolio_items":   c.portfolioItems,
		"service_links":     c.serviceLinks,
		"provider_contacts": c.providerContacts,
	}
}

// cascade: все обновления фильтруют is_deleted = false, поэтому повтор — no-op.
func (s *AccountService) cascade(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, at time.Time) (cascadeSummary, error) {
	var (
		sum cascadeSummary
		err error
	)
	clients := repository.NewGormClientRepository(tx)
	providers := repository.NewGormProviderRepository(tx)
	contacts := repository.NewGormContactRepository(tx)
	portfolio := repository.NewGormPortfolioRepository(tx)

	if sum.clientProfiles, err = clients.MarkDeletedByAccount(ctx, accountID, at); err != nil {
		return sum, fmt.Errorf("cascade client profile: %w", err)
	}
	if sum.clientProfiles > 0 {
		if sum.clientContacts, err = contacts.MarkDeletedByClient(ctx, accountID, at); err != nil {
			return sum, fmt.Errorf("cascade client contacts: %w", err)
		}
	}

	if sum.providerProfileID, err = providers.MarkDeletedByAccount(ctx, accountID, at); err != nil {
		return sum, fmt.Errorf("cascade provider profile: %w", err)
	}
	if pid := sum.providerProfileID; pid != nil {
		if sum.portfolioItems, err = portfolio.MarkDeletedByProvider(ctx, *pid, at); err != nil {
			return sum, fmt.Errorf("cascade portfolio: %w", err)
		}
		if sum.serviceLinks, err = providers.MarkServicesDeleted(ctx, *pid, at); err != nil {
			return sum, fmt.Errorf("cascade service links: %w", err)
		}
		if sum.providerContacts, err = contacts.MarkDeletedByProvider(ctx, accountID, at); err != nil {
			return sum, fmt.Errorf("cascade provider contacts: %w", err)
		}
	}
	return sum, nil
}

// HardDelete физически удаляет аккаунт; зависимые строки удаляют внешние ключи (ON DELETE CASCADE).
func (s *AccountService) HardDelete(ctx context.Context, id uuid.UUID) error {
	accounts := repository.NewGormAccountRepository(s.db)
	account, err := accounts.GetByIDUnscoped(ctx, id)
	if err != nil {
		return notFound(err, "get account")
	}

	if err := accounts.HardDelete(ctx, id); err != nil {
		return notFound(err, "hard delete account")
	}

	if account.ProviderProfile != nil {
		if err := s.cache.InvalidateProvider(ctx, account.ProviderProfile.ID); err != nil {
			s.logger.Warn("provider cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("account hard-deleted", zap.String("account_id", id.String()))
	return nil
}

func (s *AccountService) validateAccount(v *ValidationError, in AccountInput, role model.Role) *model.Account {
	a := &model.Account{
		Email:      validateEmail(v, "email", in.Email),
		FullName:   required(v, "full_name", in.FullName),
		Gender:     in.Gender,
		NationalID: validateNationalID(v, "national_id", in.NationalID),
		Role:       role,
	}
	if in.BirthDate != nil {
		d := datatypes.Date(*in.BirthDate)
		a.BirthDate = &d
	}
	if a.Gender != "" && !a.Gender.Valid() {
		v.Add("gender", "Gênero inválido.")
	}
	if in.Password == "" {
		v.Add("password", "Este campo é obrigatório.")
	} else if in.Password != in.PasswordConfirm {
		v.Add("password_confirm", "As senhas não coincidem.")
	}
	return a
}

func (s *AccountService) checkEmail(ctx context.Context, v *ValidationError, email string) error {
	if email == "" {
		return nil
	}
	taken, err := repository.NewGormAccountRepository(s.db).EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		v.Add("email", "Já existe uma conta com este email.")
	}
	return nil
}

func (s *AccountService) hashPassword(a *model.Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword сверяет пароль с сохранённым хэшем.
func (s *AccountService) CheckPassword(a *model.Account, password string) bool {
	if a == nil || a.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
