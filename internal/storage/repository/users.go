package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/pi-premium/internal/models"
)

const userColumns = `pi_uid, username, is_premium, premium_expiry`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var expiry sql.NullTime
	if err := row.Scan(&u.PiUID, &u.Username, &u.IsPremium, &expiry); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		u.PremiumExpiry = &t
	}
	u.Transactions = []string{}
	return &u, nil
}

// UpsertUsername создаёт пользователя без премиума или обновляет только его username.
// Возвращает сохранённую запись.
func (s *Storage) UpsertUsername(ctx context.Context, piUID, username string) (*models.User, error) {
	const op = "storage.UpsertUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (pi_uid, username, is_premium, premium_expiry)
			  VALUES ($1, $2, FALSE, NULL)
			  ON CONFLICT (pi_uid) DO UPDATE
			  SET username = EXCLUDED.username, updated_at = NOW()
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, piUID, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по pi_uid или models.ErrUserNotFound.
func (s *Storage) GetUser(ctx context.Context, piUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE pi_uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, piUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetOrCreateUser возвращает пользователя, создавая его без премиума, если он ещё не известен.
// Существующая запись не изменяется.
func (s *Storage) GetOrCreateUser(ctx context.Context, piUID, username string) (*models.User, error) {
	const op = "storage.GetOrCreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (pi_uid, username, is_premium, premium_expiry)
			  VALUES ($1, $2, FALSE, NULL)
			  ON CONFLICT (pi_uid) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, piUID, username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u, err := s.GetUser(ctx, piUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// setPremiumExpiry включает премиум и записывает новый срок, только если текущий
// срок в базе всё ещё равен prev. Возвращает false, если запись успела измениться.
func setPremiumExpiry(ctx context.Context, db execer, piUID string, prev *time.Time, expiry time.Time) (bool, error) {
	var prevExpiry sql.NullTime
	if prev != nil {
		prevExpiry = sql.NullTime{Time: *prev, Valid: true}
	}

	query := `UPDATE users
			  SET is_premium = TRUE,
			      premium_expiry = $2,
			      updated_at = NOW()
			  WHERE pi_uid = $1
			    AND premium_expiry IS NOT DISTINCT FROM $3::timestamptz`
	res, err := db.ExecContext(ctx, query, piUID, expiry, prevExpiry)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
