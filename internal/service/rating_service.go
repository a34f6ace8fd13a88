package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/service-marketplace/internal/geo"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

// RatingService — оценки клиентов и кэш средней оценки исполнителя.
type RatingService struct {
	db     *gorm.DB
	cache  ProviderCache
	logger *zap.Logger
}

func NewRatingService(db *gorm.DB, cache ProviderCache, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{db: db, cache: cacheOrNoop(cache), logger: logger}
}

type RatingInput struct {
	ContactRequestID uuid.UUID
	Score            int
	Comment          string
}

// RatingFilter — параметры списка оценок.
type RatingFilter struct {
	ProviderAccountID *uuid.UUID
	MinScore          int
	Order             repository.RatingOrder
}

// StarBucket — одна строка распределения.
type StarBucket struct {
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type RatingStats struct {
	Average      float64               `json:"average"`
	Total        int64                 `json:"total"`
	Distribution map[string]StarBucket `json:"distribution"`
}

type RatingList struct {
	Stats   RatingStats
	Ratings []model.Rating
}

// Create проверяет право на оценку и сохраняет её вместе с пересчётом кэша.
func (s *RatingService) Create(ctx context.Context, authorID uuid.UUID, in RatingInput) (*model.Rating, error) {
	v := &ValidationError{}
	if in.Score < model.MinScore || in.Score > model.MaxScore {
		v.Add("score", fmt.Sprintf("A nota deve estar entre %d e %d.", model.MinScore, model.MaxScore))
	}
	if in.ContactRequestID == uuid.Nil {
		v.Add("contact_request_id", "Este campo é obrigatório.")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	rating := &model.Rating{
		ContactRequestID: in.ContactRequestID,
		Score:            in.Score,
		Comment:          strings.TrimSpace(in.Comment),
	}

	var (
		profileID  uuid.UUID
		recomputed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contacts := repository.NewGormContactRepository(tx)
		ratings := repository.NewGormRatingRepository(tx)

		contact, err := contacts.GetByID(ctx, in.ContactRequestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewValidationError("contact_request_id", "Solicitação de contato não encontrada.")
		}
		if err != nil {
			return fmt.Errorf("get contact request: %w", err)
		}

		switch {
		case contact.ClientID != authorID:
			return NewValidationError("contact_request_id", "Você só pode avaliar contatos que você iniciou.")
		case !contact.Completed:
			return NewValidationError("contact_request_id", "Este serviço ainda não foi marcado como concluído pelo prestador.")
		}

		rated, err := ratings.ExistsForContact(ctx, contact.ID)
		if err != nil {
			return fmt.Errorf("check existing rating: %w", err)
		}
		if rated {
			return NewValidationError("contact_request_id", "Este serviço já foi avaliado.")
		}

		if err := ratings.Create(ctx, rating); err != nil {
			return fmt.Errorf("create rating: %w", err)
		}

		ev := model.NewEvent(model.EventTypeRatingCreated, &authorID, &rating.ID, map[string]any{
			"contact_request_id": contact.ID,
			"provider_id":        contact.ProviderID,
			"score":              rating.Score,
		})
		if err := repository.NewGormEventRepository(tx).Append(ctx, ev); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		profileID, recomputed = s.RecomputeProviderRating(ctx, tx, contact.ProviderID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if recomputed {
		s.invalidate(ctx, profileID)
	}
	return rating, nil
}

// Remove удаляет оценку; удалить может только её автор.
func (s *RatingService) Remove(ctx context.Context, authorID, ratingID uuid.UUID) error {
	var (
		profileID  uuid.UUID
		recomputed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ratings := repository.NewGormRatingRepository(tx)

		rating, err := ratings.GetByID(ctx, ratingID)
		if err != nil {
			return notFound(err, "get rating")
		}
		if rating.ContactRequest == nil || rating.ContactRequest.ClientID != authorID {
			return fmt.Errorf("remove rating %s: %w", ratingID, ErrForbidden)
		}

		if err := ratings.Delete(ctx, ratingID); err != nil {
			return notFound(err, "delete rating")
		}

		ev := model.NewEvent(model.EventTypeRatingRemoved, &authorID, &ratingID, map[string]any{
			"contact_request_id": rating.ContactRequestID,
			"provider_id":        rating.ContactRequest.ProviderID,
			"score":              rating.Score,
		})
		if err := repository.NewGormEventRepository(tx).Append(ctx, ev); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		profileID, recomputed = s.RecomputeProviderRating(ctx, tx, rating.ContactRequest.ProviderID)
		return nil
	})
	if err != nil {
		return err
	}
	if recomputed {
		s.invalidate(ctx, profileID)
	}
	return nil
}

// RecomputeProviderRating пересчитывает count/avg оценок исполнителя и возвращает id профиля.
// Ошибки не возвращаются: устаревший кэш лучше упавшей основной операции.
// Работа идёт во вложенной транзакции (savepoint), чтобы сбой не ломал внешнюю.
// Кэш карточки сбрасывает вызывающий, после коммита внешней транзакции.
func (s *RatingService) RecomputeProviderRating(ctx context.Context, db *gorm.DB, providerAccountID uuid.UUID) (uuid.UUID, bool) {
	log := s.logger.With(zap.String("provider_account_id", providerAccountID.String()))

	var profileID uuid.UUID
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		providers := repository.NewGormProviderRepository(tx)

		profile, err := providers.GetByAccountID(ctx, providerAccountID)
		if err != nil {
			return fmt.Errorf("get provider profile: %w", err)
		}
		profileID = profile.ID

		agg, err := repository.NewGormRatingRepository(tx).Aggregate(ctx, providerAccountID)
		if err != nil {
			return fmt.Errorf("aggregate ratings: %w", err)
		}

		average, count := ratingCache(agg)
		if err := providers.UpdateRatingCache(ctx, providerAccountID, average, count); err != nil {
			return fmt.Errorf("update rating cache: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("rating cache recompute failed", zap.Error(err))
		return uuid.Nil, false
	}
	return profileID, true
}

func (s *RatingService) invalidate(ctx context.Context, profileID uuid.UUID) {
	if err := s.cache.InvalidateProvider(ctx, profileID); err != nil {
		s.logger.Warn("provider cache invalidation failed",
			zap.String("provider_profile_id", profileID.String()), zap.Error(err))
	}
}

// ratingCache: без оценок — 5.0 и 0, иначе среднее с округлением до сотых.
func ratingCache(agg repository.RatingAggregate) (float64, int) {
	if agg.Count == 0 || agg.Average == nil {
		return model.DefaultRatingAverage, 0
	}
	return geo.Round(*agg.Average, 2), int(agg.Count)
}

func (s *RatingService) Get(ctx context.Context, id uuid.UUID) (*model.Rating, error) {
	r, err := repository.NewGormRatingRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "get rating")
	}
	return r, nil
}

func (s *RatingService) List(ctx context.Context, f RatingFilter) (*RatingList, error) {
	ratings := repository.NewGormRatingRepository(s.db)
	q := repository.RatingQuery{
		ProviderAccountID: f.ProviderAccountID,
		MinScore:          f.MinScore,
		Order:             f.Order,
	}

	items, err := ratings.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	dist, err := ratings.Distribution(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}

	return &RatingList{Stats: buildRatingStats(dist), Ratings: items}, nil
}

// buildRatingStats: проценты и среднее округляются до сотых, при пустой выборке — нули.
func buildRatingStats(dist map[int]int64) RatingStats {
	var total, sum int64
	for score, n := range dist {
		total += n
		sum += int64(score) * n
	}

	stats := RatingStats{
		Total:        total,
		Distribution: make(map[string]StarBucket, model.MaxScore),
	}
	if total > 0 {
		stats.Average = geo.Round(float64(sum)/float64(total), 2)
	}
	for score := model.MinScore; score <= model.MaxScore; score++ {
		b := StarBucket{Count: dist[score]}
		if total > 0 {
			b.Percent = geo.Round(float64(dist[score])/float64(total)*100, 2)
		}
		stats.Distribution[fmt.Sprintf("stars_%d", score)] = b
	}
	return stats
}
