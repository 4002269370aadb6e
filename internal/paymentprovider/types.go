package paymentprovider

import "github.com/magabrotheeeer/pi-premium/internal/lib/money"

// UserInfo ответ GET /me.
type UserInfo struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

// Payment детали платежа, возвращаемые GET /payments/{id}.
type Payment struct {
	Identifier  string             `json:"identifier"`
	FromUID     string             `json:"from_uid"`
	ActorUID    string             `json:"actor_uid"`
	Amount      money.Amount       `json:"amount"`
	Memo        string             `json:"memo"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Status      PaymentStatus      `json:"status"`
	Transaction *PaymentTransition `json:"transaction,omitempty"`
}

// PayerUID возвращает плательщика: from_uid, а при его отсутствии actor_uid.
func (p *Payment) PayerUID() string {
	if p.FromUID != "" {
		return p.FromUID
	}
	return p.ActorUID
}

// PaymentStatus флаги жизненного цикла платежа на стороне платформы.
type PaymentStatus struct {
	DeveloperApproved   bool `json:"developer_approved"`
	TransactionVerified bool `json:"transaction_verified"`
	DeveloperCompleted  bool `json:"developer_completed"`
	Cancelled           bool `json:"cancelled"`
	UserCancelled       bool `json:"user_cancelled"`
}

// PaymentTransition транзакция в блокчейне, связанная с платежом.
type PaymentTransition struct {
	TxID     string `json:"txid"`
	Verified bool   `json:"verified"`
	Link     string `json:"_link"`
}

type completeRequest struct {
	TxID string `json:"txid"`
}
