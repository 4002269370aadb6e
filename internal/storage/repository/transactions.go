package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/pi-premium/internal/lib/money"
	"github.com/magabrotheeeer/pi-premium/internal/models"
)

func insertTransaction(ctx context.Context, db execer, tx models.Transaction) error {
	query := `INSERT INTO transactions (id, pi_uid, amount, status, txid, payment_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := db.ExecContext(ctx, query,
		tx.ID, tx.PiUID, int64(tx.Amount), tx.Status, tx.TxID, tx.PaymentID, tx.Timestamp)
	return err
}

// FindTransaction ищет ранее записанную транзакцию по payment_id и txid.
func (s *Storage) FindTransaction(ctx context.Context, paymentID, txid string) (*models.Transaction, bool, error) {
	const op = "storage.FindTransaction"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, pi_uid, amount, status, txid, payment_id, created_at
			  FROM transactions
			  WHERE payment_id = $1 AND txid = $2
			  ORDER BY created_at
			  LIMIT 1`
	var tx models.Transaction
	var amount int64
	err := s.DB.QueryRowContext(ctx, query, paymentID, txid).Scan(
		&tx.ID, &tx.PiUID, &amount, &tx.Status, &tx.TxID, &tx.PaymentID, &tx.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	tx.Amount = money.Amount(amount)
	tx.Timestamp = tx.Timestamp.UTC()
	return &tx, true, nil
}

// ListTransactionIDs возвращает идентификаторы транзакций пользователя в порядке создания.
func (s *Storage) ListTransactionIDs(ctx context.Context, piUID string) ([]string, error) {
	const op = "storage.ListTransactionIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id FROM transactions
			  WHERE pi_uid = $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, piUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
