package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

//go:embed catalog.toml
var catalogTOML []byte

// CatalogEntry — категория справочника и названия её услуг.
type CatalogEntry struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Services    []string `toml:"services"`
}

type catalogFile struct {
	Categories []CatalogEntry `toml:"category"`
}

// Catalog — неизменяемый справочник, загруженный один раз при старте.
type Catalog struct {
	categories []CatalogEntry
	byName     map[string]CatalogEntry
	serviceOf  map[string]string // услуга -> категория
}

// DefaultCatalog — встроенный справочник.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(catalogTOML)
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		byName:    make(map[string]CatalogEntry, len(f.Categories)),
		serviceOf: make(map[string]string),
	}
	for _, entry := range f.Categories {
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			return nil, errors.New("catalog: category without name")
		}
		if _, dup := c.byName[entry.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", entry.Name)
		}
		for i, svc := range entry.Services {
			svc = strings.TrimSpace(svc)
			if svc == "" {
				return nil, fmt.Errorf("catalog: empty service name in %q", entry.Name)
			}
			if other, dup := c.serviceOf[svc]; dup {
				return nil, fmt.Errorf("catalog: service %q listed in %q and %q", svc, other, entry.Name)
			}
			entry.Services[i] = svc
			c.serviceOf[svc] = entry.Name
		}
		c.byName[entry.Name] = entry
		c.categories = append(c.categories, entry)
	}
	return c, nil
}

func (c *Catalog) Categories() []CatalogEntry {
	out := make([]CatalogEntry, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Category(name string) (CatalogEntry, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// CategoryOf — категория, к которой справочник относит услугу.
func (c *Catalog) CategoryOf(service string) (string, bool) {
	name, ok := c.serviceOf[service]
	return name, ok
}

func (c *Catalog) ServiceCount() int {
	return len(c.serviceOf)
}

// SeedResult — сколько записей создано при досеве.
type SeedResult struct {
	CategoriesCreated int
	ServicesCreated   int
}

// CatalogService — таксономия услуг.
type CatalogService struct {
	db      *gorm.DB
	catalog *Catalog
	logger  *zap.Logger
}

func NewCatalogService(db *gorm.DB, catalog *Catalog, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{db: db, catalog: catalog, logger: logger}
}

// Seed создаёт отсутствующие категории и услуги; существующие не трогает.
func (s *CatalogService) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	if s.catalog == nil {
		return res, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewGormServiceRepository(tx)
		for _, entry := range s.catalog.categories {
			category := &model.ServiceCategory{Name: entry.Name, Description: entry.Description}
			created, err := repo.EnsureCategory(ctx, category)
			if err != nil {
				return fmt.Errorf("ensure category %q: %w", entry.Name, err)
			}
			if created {
				res.CategoriesCreated++
			}

			for _, name := range entry.Services {
				created, err := repo.EnsureService(ctx, &model.Service{Name: name, CategoryID: category.ID})
				if err != nil {
					return fmt.Errorf("ensure service %q: %w", name, err)
				}
				if created {
					res.ServicesCreated++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.logger.Info("service catalog seeded",
		zap.Int("categories_created", res.CategoriesCreated),
		zap.Int("services_created", res.ServicesCreated),
	)
	return res, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.ServiceCategory, error) {
	categories, err := repository.NewGormServiceRepository(s.db).ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) ListServices(ctx context.Context, categoryID *uuid.UUID) ([]model.Service, error) {
	services, err := repository.NewGormServiceRepository(s.db).List(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// ValidateServiceCategory отклоняет пару услуга/категория, если услуга из другой категории.
func (s *CatalogService) ValidateServiceCategory(ctx context.Context, serviceID, categoryID uuid.UUID) error {
	return validateServiceCategory(ctx, s.db, serviceID, categoryID)
}

func validateServiceCategory(ctx context.Context, db *gorm.DB, serviceID, categoryID uuid.UUID) error {
	svc, err := repository.NewGormServiceRepository(db).GetByID(ctx, serviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewValidationError("service", "Serviço não encontrado.")
	}
	if err != nil {
		return fmt.Errorf("get service: %w", err)
	}
	if svc.CategoryID != categoryID {
		return NewValidationError("category", "O serviço informado não pertence a esta categoria.")
	}
	return nil
}
