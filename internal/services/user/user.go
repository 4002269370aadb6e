// Package user отдаёт информацию о пользователе и его премиум-доступе.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/pi-premium/internal/cache"
	"github.com/magabrotheeeer/pi-premium/internal/lib/period"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/models"
)

// Repository чтение пользователей и их транзакций.
type Repository interface {
	GetUser(ctx context.Context, piUID string) (*models.User, error)
	ListTransactionIDs(ctx context.Context, piUID string) ([]string, error)
}

// Cache кэш документов пользователей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service читает пользователей через кэш.
type Service struct {
	log   *slog.Logger
	repo  Repository
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// New создает новый экземпляр Service. ttl время жизни документа в кэше.
func New(log *slog.Logger, repo Repository, cache Cache, ttl time.Duration) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Info возвращает пользователя с оставшимися днями премиума. Для неизвестного
// пользователя возвращает ошибку, оборачивающую models.ErrUserNotFound.
// Ошибки кэша не прерывают запрос.
func (s *Service) Info(ctx context.Context, piUID string) (*models.UserInfo, error) {
	const op = "services.user.Info"
	log := s.log.With(slog.String("op", op), slog.String("pi_uid", piUID))
	key := cache.UserKey(piUID)

	var u models.User
	found, err := s.cache.Get(ctx, key, &u)
	if err != nil {
		log.Warn("failed to read user from cache", sl.Err(err))
		found = false
	}

	if !found {
		stored, err := s.repo.GetUser(ctx, piUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids, err := s.repo.ListTransactionIDs(ctx, piUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stored.Transactions = ids
		u = *stored

		if err := s.cache.Set(ctx, key, u, s.ttl); err != nil {
			log.Warn("failed to cache user", sl.Err(err))
		}
	}

	if u.Transactions == nil {
		u.Transactions = []string{}
	}
	return &models.UserInfo{
		User:          u,
		RemainingDays: period.RemainingDays(u.IsPremium, u.PremiumExpiry, s.now()),
	}, nil
}
