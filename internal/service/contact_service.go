package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

// ContactService — заявки клиентов и ссылки для передачи разговора в WhatsApp.
type ContactService struct {
	db     *gorm.DB
	cache  ProviderCache
	logger *zap.Logger
	now    func() time.Time
}

func NewContactService(db *gorm.DB, cache ProviderCache, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		db:     db,
		cache:  cacheOrNoop(cache),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ContactResult — заявка и подготовленная ссылка для мессенджера.
type ContactResult struct {
	Contact      *model.ContactRequest
	WhatsAppLink string
}

// Initiate сохраняет заявку клиента и возвращает ссылку на чат с исполнителем.
// Если у исполнителя нет телефона, заявка всё равно сохраняется, а вызывающему
// возвращается ошибка валидации.
func (s *ContactService) Initiate(ctx context.Context, clientID, providerAccountID, serviceID uuid.UUID) (*ContactResult, error) {
	if clientID == providerAccountID {
		return nil, NewValidationError("provider_id", "Você não pode iniciar contato consigo mesmo.")
	}

	accounts := repository.NewGormAccountRepository(s.db)
	client, err := accounts.GetByID(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "get client account")
	}

	v := &ValidationError{}
	provider, err := accounts.GetByID(ctx, providerAccountID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		v.Add("provider_id", "Prestador não encontrado.")
	case err != nil:
		return nil, fmt.Errorf("get provider account: %w", err)
	case provider.Role != model.RoleProvider || provider.ProviderProfile == nil:
		v.Add("provider_id", "O usuário informado não é um prestador.")
	}

	svc, err := repository.NewGormServiceRepository(s.db).GetByID(ctx, serviceID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		v.Add("service_id", "Serviço não encontrado.")
	case err != nil:
		return nil, fmt.Errorf("get service: %w", err)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	contact := &model.ContactRequest{
		ClientID:   clientID,
		ProviderID: providerAccountID,
		ServiceID:  serviceID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewGormContactRepository(tx).Create(ctx, contact); err != nil {
			return fmt.Errorf("create contact request: %w", err)
		}
		ev := model.NewEvent(model.EventTypeContactCreated, &clientID, &contact.ID, map[string]any{
			"provider_id": providerAccountID,
			"service_id":  serviceID,
		})
		return repository.NewGormEventRepository(tx).Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	phone := provider.ProviderProfile.PublicPhone
	if phone == "" {
		return nil, NewValidationError("provider_id", "Este prestador não possui telefone cadastrado.")
	}

	contact.Client, contact.Provider, contact.Service = client, provider, svc
	text := contactGreeting(provider.ShortName(), client.ShortName(), svc.Name)
	return &ContactResult{Contact: contact, WhatsAppLink: WhatsAppLink(phone, text)}, nil
}

// Complete отмечает заявку выполненной. Чужая заявка — not found.
func (s *ContactService) Complete(ctx context.Context, providerAccountID, contactID uuid.UUID) (*ContactResult, error) {
	var contact *model.ContactRequest
	var providerProfileID uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contacts := repository.NewGormContactRepository(tx)

		c, err := contacts.GetByID(ctx, contactID)
		if err != nil {
			return notFound(err, "get contact request")
		}
		if c.ProviderID != providerAccountID {
			return fmt.Errorf("contact request %s: %w", contactID, ErrNotFound)
		}

		if !c.Completed {
			at := s.now()
			if err := contacts.MarkCompleted(ctx, c.ID, at); err != nil {
				return fmt.Errorf("mark completed: %w", err)
			}
			c.Completed, c.CompletedAt = true, &at

			ev := model.NewEvent(model.EventTypeContactCompleted, &providerAccountID, &c.ID, map[string]any{
				"client_id":  c.ClientID,
				"service_id": c.ServiceID,
			})
			if err := repository.NewGormEventRepository(tx).Append(ctx, ev); err != nil {
				return fmt.Errorf("append event: %w", err)
			}
		}

		total, err := contacts.CountCompletedByProvider(ctx, providerAccountID)
		if err != nil {
			return fmt.Errorf("count completed: %w", err)
		}
		providers := repository.NewGormProviderRepository(tx)
		if err := providers.UpdateServiceCount(ctx, providerAccountID, int(total)); err != nil {
			return fmt.Errorf("update service count: %w", err)
		}
		if p, err := providers.GetByAccountID(ctx, providerAccountID); err == nil {
			providerProfileID = p.ID
		}

		contact = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if providerProfileID != uuid.Nil {
		if err := s.cache.InvalidateProvider(ctx, providerProfileID); err != nil {
			s.logger.Warn("provider cache invalidation failed", zap.Error(err))
		}
	}

	var phone, clientName, serviceName string
	if contact.Client != nil {
		clientName = contact.Client.ShortName()
		if cp, err := repository.NewGormClientRepository(s.db).GetByAccountID(ctx, contact.ClientID); err == nil {
			phone = cp.ContactPhone
		}
	}
	if contact.Service != nil {
		serviceName = contact.Service.Name
	}

	return &ContactResult{
		Contact:      contact,
		WhatsAppLink: WhatsAppLink(phone, completionMessage(clientName, serviceName)),
	}, nil
}

func (s *ContactService) ListForProvider(ctx context.Context, providerAccountID uuid.UUID) ([]model.ContactRequest, error) {
	contacts, err := repository.NewGormContactRepository(s.db).ListByProvider(ctx, providerAccountID)
	if err != nil {
		return nil, fmt.Errorf("list provider contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) ListForClient(ctx context.Context, clientAccountID uuid.UUID) ([]model.ContactRequest, error) {
	contacts, err := repository.NewGormContactRepository(s.db).ListByClient(ctx, clientAccountID)
	if err != nil {
		return nil, fmt.Errorf("list client contacts: %w", err)
	}
	return contacts, nil
}
