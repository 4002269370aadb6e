// Package auth связывает токен доступа Pi с локальной записью пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/pi-premium/internal/cache"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/models"
	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
)

// ErrInvalidToken токен не подтверждён платформой или по нему нельзя определить пользователя.
var ErrInvalidToken = errors.New("invalid access token")

// TokenVerifier проверяет токен доступа на стороне платформы.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (*paymentprovider.UserInfo, error)
}

// UserRepository описывает операции с пользователями, нужные для входа.
type UserRepository interface {
	UpsertUsername(ctx context.Context, piUID, username string) (*models.User, error)
	ListTransactionIDs(ctx context.Context, piUID string) ([]string, error)
}

// Cache сбрасывает закэшированный документ пользователя.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// Service проверяет токены и сохраняет пользователей.
type Service struct {
	log      *slog.Logger
	verifier TokenVerifier
	users    UserRepository
	cache    Cache
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, verifier TokenVerifier, users UserRepository, cache Cache) *Service {
	return &Service{
		log:      log,
		verifier: verifier,
		users:    users,
		cache:    cache,
	}
}

// Verify проверяет accessToken и создаёт или обновляет пользователя.
// Идентификатор берётся у платформы, clientUID используется только если платформа
// его не вернула. Имя берётся у клиента, затем у платформы, затем "Pioneer".
func (s *Service) Verify(ctx context.Context, accessToken, clientUID, clientUsername string) (*models.User, error) {
	const op = "services.auth.Verify"

	info, err := s.verifier.VerifyToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	piUID := info.UID
	if piUID == "" {
		piUID = clientUID
	}
	if piUID == "" {
		return nil, fmt.Errorf("%s: %w: no uid", op, ErrInvalidToken)
	}

	username := clientUsername
	if username == "" {
		username = info.Username
	}
	if username == "" {
		username = models.DefaultUsername
	}

	user, err := s.users.UpsertUsername(ctx, piUID, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids, err := s.users.ListTransactionIDs(ctx, piUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Transactions = ids

	if err := s.cache.Invalidate(ctx, cache.UserKey(piUID)); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.String("op", op), slog.String("pi_uid", piUID), sl.Err(err))
	}
	return user, nil
}
