// Package period содержит расчёт срока действия премиум-доступа.
package period

import "time"

// Day длительность одного дня продления.
const Day = 24 * time.Hour

// Anchor возвращает точку отсчёта продления: текущий срок, если премиум
// активен и ещё не истёк (строго позже now), иначе now. Так продления
// складываются с оставшимся временем.
func Anchor(isPremium bool, expiry *time.Time, now time.Time) time.Time {
	if isPremium && expiry != nil && expiry.After(now) {
		return expiry.UTC()
	}
	return now.UTC()
}

// Extend возвращает новый срок действия, отсчитанный от Anchor.
func Extend(isPremium bool, expiry *time.Time, now time.Time, days int) time.Time {
	return Anchor(isPremium, expiry, now).Add(time.Duration(days) * Day)
}

// RemainingDays считает полные оставшиеся дни премиума, не меньше нуля.
func RemainingDays(isPremium bool, expiry *time.Time, now time.Time) int {
	if !isPremium || expiry == nil {
		return 0
	}
	left := expiry.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / Day)
}
