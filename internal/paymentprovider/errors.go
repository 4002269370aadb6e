package paymentprovider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized access token пользователя не принят платформой.
	ErrUnauthorized = errors.New("invalid access token")
	// ErrApprovalFailed платформа не подтвердила одобрение платежа.
	ErrApprovalFailed = errors.New("approval failed")
	// ErrCompletionFailed платформа не подтвердила завершение платежа.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrFetchFailed не удалось получить детали платежа.
	ErrFetchFailed = errors.New("cannot fetch payment details")
)

// UpstreamError описывает неуспешный вызов платформы. Err содержит одну из
// sentinel-ошибок пакета, Cause хранит транспортную ошибку, если запрос не дошёл.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
	Cause      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Err, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %v: unexpected status %d", e.Op, e.Err, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Unwrap позволяет errors.Is находить как sentinel, так и причину.
func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
