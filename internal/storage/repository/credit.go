package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/pi-premium/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreditPremium в одной транзакции продлевает премиум пользователя tx.PiUID
// до expiry и записывает транзакцию tx. Срок меняется, только если в базе
// всё ещё prev. Иначе ничего не записывается и возвращается false.
func (s *Storage) CreditPremium(ctx context.Context, prev *time.Time, expiry time.Time, tx models.Transaction) (bool, error) {
	const op = "storage.CreditPremium"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	dbTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: failed to start transaction: %w", op, err)
	}
	defer dbTx.Rollback()

	ok, err := setPremiumExpiry(ctx, dbTx, tx.PiUID, prev, expiry)
	if err != nil {
		return false, fmt.Errorf("%s: update expiry: %w", op, err)
	}
	if !ok {
		return false, nil
	}

	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return false, fmt.Errorf("%s: insert transaction: %w", op, err)
	}
	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("%s: commit: %w", op, err)
	}
	return true, nil
}
