// Package payment реализует двухфазное подтверждение платежей Pi
// и продление премиум-доступа по завершённому платежу.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pi-premium/internal/cache"
	"github.com/magabrotheeeer/pi-premium/internal/lib/money"
	"github.com/magabrotheeeer/pi-premium/internal/lib/period"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/models"
	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
)

const (
	// PremiumDays число дней, которое добавляет платёж не меньше MinPremiumAmount.
	PremiumDays = 30
	// maxExpiryAttempts число попыток записать срок при конкурентных завершениях.
	maxExpiryAttempts = 3
)

// MinPremiumAmount минимальная сумма платежа, продлевающая премиум.
var MinPremiumAmount = money.FromPi(2)

var (
	// ErrUserNotIdentified в деталях платежа нет плательщика.
	ErrUserNotIdentified = errors.New("user not identified")
	// ErrConcurrentUpdate срок премиума менялся параллельно на каждой попытке.
	ErrConcurrentUpdate = errors.New("premium expiry changed concurrently")
)

// Provider вызовы платформы Pi, нужные для подтверждения платежа.
type Provider interface {
	ApprovePayment(ctx context.Context, paymentID string) error
	CompletePayment(ctx context.Context, paymentID, txid string) error
	FetchPayment(ctx context.Context, paymentID string) (*paymentprovider.Payment, error)
}

// Repository хранилище пользователей и транзакций.
type Repository interface {
	GetUser(ctx context.Context, piUID string) (*models.User, error)
	GetOrCreateUser(ctx context.Context, piUID, username string) (*models.User, error)
	// CreditPremium атомарно записывает новый срок и транзакцию tx, если срок
	// в хранилище всё ещё prev. При ошибке не записывается ни то, ни другое.
	CreditPremium(ctx context.Context, prev *time.Time, expiry time.Time, tx models.Transaction) (bool, error)
	FindTransaction(ctx context.Context, paymentID, txid string) (*models.Transaction, bool, error)
}

// Cache сбрасывает закэшированный документ пользователя.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует событие о зачисленном платеже.
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event models.PaymentCompletedEvent) error
}

// Metrics учитывает зачисленные платежи.
type Metrics interface {
	PaymentCompleted(amount money.Amount, addedDays int)
}

// Options настройки обработки платежей.
type Options struct {
	// Deduplicate возвращает текущий срок без повторного зачисления,
	// если транзакция с тем же paymentId и txid уже записана.
	Deduplicate bool
	// ReinvalidateAfter пауза перед повторным сбросом кэша пользователя.
	// Ноль отключает повторный сброс.
	ReinvalidateAfter time.Duration
}

// CompleteResult итог завершения платежа.
type CompleteResult struct {
	PiUID         string
	TransactionID string
	AddedDays     int
	NewExpiry     time.Time
	Duplicate     bool
}

// Service проводит платежи через платформу и начисляет премиум.
type Service struct {
	log       *slog.Logger
	provider  Provider
	repo      Repository
	cache     Cache
	publisher EventPublisher
	metrics   Metrics
	opts      Options
	now       func() time.Time
}

// New создает новый экземпляр Service. publisher и metrics могут быть nil.
func New(log *slog.Logger, provider Provider, repo Repository, cache Cache,
	publisher EventPublisher, metrics Metrics, opts Options) *Service {
	return &Service{
		log:       log,
		provider:  provider,
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		opts:      opts,
		now:       time.Now,
	}
}

// Approve подтверждает платёж на стороне платформы. Локальное состояние не меняется.
func (s *Service) Approve(ctx context.Context, paymentID string) error {
	const op = "services.payment.Approve"
	if err := s.provider.ApprovePayment(ctx, paymentID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExtensionDays число дней продления за платёж на сумму amount.
func ExtensionDays(amount money.Amount) int {
	if amount >= MinPremiumAmount {
		return PremiumDays
	}
	return 0
}

// Complete завершает платёж на платформе, проверяет его детали и продлевает премиум плательщика.
// Каждый шаг прерывает обработку при ошибке, следующие шаги не выполняются.
func (s *Service) Complete(ctx context.Context, paymentID, txid string) (*CompleteResult, error) {
	const op = "services.payment.Complete"
	log := s.log.With(slog.String("op", op), slog.String("payment_id", paymentID))

	if err := s.provider.CompletePayment(ctx, paymentID, txid); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.provider.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payer := p.PayerUID()
	if payer == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotIdentified)
	}
	days := ExtensionDays(p.Amount)

	if s.opts.Deduplicate {
		res, found, err := s.findDuplicate(ctx, payer, paymentID, txid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if found {
			log.Info("payment already credited", slog.String("txid", txid))
			return res, nil
		}
	}

	user, err := s.repo.GetOrCreateUser(ctx, payer, models.DefaultUsername)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	completedAt := s.now().UTC()
	tx := models.Transaction{
		ID:        uuid.NewString(),
		PiUID:     payer,
		Amount:    p.Amount,
		Status:    models.TransactionStatusCompleted,
		TxID:      txid,
		PaymentID: paymentID,
		Timestamp: completedAt,
	}

	newExpiry, err := s.extend(ctx, user, days, tx)
	// Кэш сбрасывается при любом исходе записи, в том числе при ошибке фиксации.
	s.invalidate(ctx, log, payer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.metrics != nil {
		s.metrics.PaymentCompleted(p.Amount, days)
	}
	if s.publisher != nil {
		event := models.PaymentCompletedEvent{
			TransactionID: tx.ID,
			PiUID:         payer,
			PaymentID:     paymentID,
			TxID:          txid,
			Amount:        p.Amount,
			AddedDays:     days,
			NewExpiry:     newExpiry,
			CompletedAt:   completedAt,
		}
		if err := s.publisher.PublishPaymentCompleted(ctx, event); err != nil {
			log.Error("failed to publish payment event", sl.Err(err))
		}
	}

	log.Info("payment completed",
		slog.String("pi_uid", payer),
		slog.String("amount", p.Amount.String()),
		slog.Int("added_days", days),
		slog.Time("new_expiry", newExpiry),
	)
	return &CompleteResult{
		PiUID:         payer,
		TransactionID: tx.ID,
		AddedDays:     days,
		NewExpiry:     newExpiry,
	}, nil
}

// extend записывает новый срок премиума вместе с транзакцией tx. Запись условная:
// если срок изменился после чтения, пользователь перечитывается и точка отсчёта
// считается заново.
func (s *Service) extend(ctx context.Context, user *models.User, days int, tx models.Transaction) (time.Time, error) {
	for range maxExpiryAttempts {
		newExpiry := period.Extend(user.IsPremium, user.PremiumExpiry, s.now(), days).Truncate(time.Microsecond)

		ok, err := s.repo.CreditPremium(ctx, user.PremiumExpiry, newExpiry, tx)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return newExpiry, nil
		}

		s.log.Debug("premium expiry changed concurrently, retrying", slog.String("pi_uid", user.PiUID))
		user, err = s.repo.GetUser(ctx, user.PiUID)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Time{}, ErrConcurrentUpdate
}

// invalidate сбрасывает документ пользователя в кэше сразу и ещё раз через
// opts.ReinvalidateAfter. Второй сброс убирает документ, прочитанный из базы
// до записи и положенный в кэш после первого сброса.
func (s *Service) invalidate(ctx context.Context, log *slog.Logger, piUID string) {
	key := cache.UserKey(piUID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		log.Warn("failed to invalidate user cache", sl.Err(err))
	}
	if s.opts.ReinvalidateAfter <= 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	time.AfterFunc(s.opts.ReinvalidateAfter, func() {
		if err := s.cache.Invalidate(bg, key); err != nil {
			log.Warn("failed to invalidate user cache again", sl.Err(err))
		}
	})
}

func (s *Service) findDuplicate(ctx context.Context, payer, paymentID, txid string) (*CompleteResult, bool, error) {
	tx, found, err := s.repo.FindTransaction(ctx, paymentID, txid)
	if err != nil || !found {
		return nil, false, err
	}
	user, err := s.repo.GetUser(ctx, payer)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if user.PremiumExpiry == nil {
		return nil, false, nil
	}
	return &CompleteResult{
		PiUID:         payer,
		TransactionID: tx.ID,
		NewExpiry:     user.PremiumExpiry.UTC(),
		Duplicate:     true,
	}, true, nil
}
