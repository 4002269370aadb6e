// Package models содержит доменные структуры сервиса: пользователя Pi
// с данными премиум-доступа и запись о завершённом платеже.
package models

import "time"

// DefaultUsername имя, которое получает пользователь без username ни от клиента, ни от Pi.
const DefaultUsername = "Pioneer"

// User представляет пользователя, идентифицированного платформой Pi.
type User struct {
	PiUID         string     `json:"pi_uid"`         // Стабильный идентификатор пользователя в Pi
	Username      string     `json:"username"`       // Отображаемое имя
	IsPremium     bool       `json:"is_premium"`     // Признак премиум-доступа
	PremiumExpiry *time.Time `json:"premium_expiry"` // Срок действия премиума, nil если не покупался
	Transactions  []string   `json:"transactions"`   // Идентификаторы транзакций пользователя
}

// NewUser возвращает пользователя без премиума с пустым списком транзакций.
func NewUser(piUID, username string) User {
	if username == "" {
		username = DefaultUsername
	}
	return User{
		PiUID:        piUID,
		Username:     username,
		Transactions: []string{},
	}
}

// UserInfo ответ на запрос информации о пользователе.
type UserInfo struct {
	User
	RemainingDays int `json:"remaining_days"` // Полные оставшиеся дни премиума
}
