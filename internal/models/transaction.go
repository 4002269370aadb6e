package models

import (
	"time"

	"github.com/magabrotheeeer/pi-premium/internal/lib/money"
)

// TransactionStatusCompleted единственный статус, с которым записываются транзакции.
const TransactionStatusCompleted = "completed"

// Transaction запись о завершённом платеже. После создания не изменяется.
type Transaction struct {
	ID        string       `json:"id"`
	PiUID     string       `json:"pi_uid"`
	Amount    money.Amount `json:"amount"`
	Status    string       `json:"status"`
	TxID      string       `json:"txid"`
	PaymentID string       `json:"payment_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// PaymentCompletedEvent событие, публикуемое после зачисления платежа.
type PaymentCompletedEvent struct {
	TransactionID string       `json:"transaction_id"`
	PiUID         string       `json:"pi_uid"`
	PaymentID     string       `json:"payment_id"`
	TxID          string       `json:"txid"`
	Amount        money.Amount `json:"amount"`
	AddedDays     int          `json:"added_days"`
	NewExpiry     time.Time    `json:"new_expiry"`
	CompletedAt   time.Time    `json:"completed_at"`
}
