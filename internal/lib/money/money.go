// Package money хранит суммы в Pi как целое число минимальных единиц.
//
// Один Pi равен Scale единицам (7 знаков после запятой), поэтому суммы
// складываются и сравниваются без ошибок округления двоичной плавающей точки.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Scale количество минимальных единиц в одном Pi.
const Scale = 10_000_000

const fractionDigits = 7

// ErrInvalidAmount возвращается, если сумма не является неотрицательным
// десятичным числом.
var ErrInvalidAmount = errors.New("invalid amount")

// Платежи Pi не бывают отрицательными, знак минус не принимается.
var decimalRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Amount сумма в минимальных единицах.
type Amount int64

// FromPi возвращает сумму в целых Pi.
func FromPi(pi int64) Amount {
	return Amount(pi * Scale)
}

// Parse разбирает неотрицательную десятичную запись суммы ("2", "0.5", "2e0").
// Знаки после седьмого отбрасываются.
func Parse(s string) (Amount, error) {
	const op = "money.Parse"

	s = strings.TrimSpace(s)
	if !decimalRe.MatchString(s) {
		return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidAmount, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%s: %w: %q", op, ErrInvalidAmount, s)
	}
	r.Mul(r, big.NewRat(Scale, 1))
	units := new(big.Int).Quo(r.Num(), r.Denom())
	if !units.IsInt64() {
		return 0, fmt.Errorf("%s: %w: %q out of range", op, ErrInvalidAmount, s)
	}
	return Amount(units.Int64()), nil
}

// String возвращает десятичную запись без лишних нулей: 2, 2.5, 0.0000001.
func (a Amount) String() string {
	sign := ""
	u := uint64(a)
	if a < 0 {
		sign = "-"
		u = -u // беззнаковое отрицание корректно и для math.MinInt64
	}
	whole := u / Scale
	frac := u % Scale
	if frac == 0 {
		return sign + strconv.FormatUint(whole, 10)
	}
	fracStr := fmt.Sprintf("%0*d", fractionDigits, frac)
	return sign + strconv.FormatUint(whole, 10) + "." + strings.TrimRight(fracStr, "0")
}

// MarshalJSON кодирует сумму как JSON-число.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON принимает число, строку с числом или null (ноль).
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
