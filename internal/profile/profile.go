// Package profile holds the per-user settings the time-accounting engine
// consumes: hourly rate, currency and idle reminder minutes.
package profile

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/text/currency"

	"github.com/sadopc/shiftclock/internal/entry"
)

type Profile struct {
	HourlyRate  float64 `json:"hourly_rate"`
	Currency    string  `json:"currency"`
	IdleMinutes int     `json:"idle_minutes"`
}

// Currencies is the fixed set of currency codes a profile may use.
var Currencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "INR"}

const (
	DefaultCurrency    = "USD"
	DefaultIdleMinutes = 5
)

func Default() Profile {
	return Profile{Currency: DefaultCurrency, IdleMinutes: DefaultIdleMinutes}
}

func (p Profile) Validate() error {
	if p.HourlyRate < 0 || math.IsNaN(p.HourlyRate) || math.IsInf(p.HourlyRate, 0) {
		return fmt.Errorf("%w: hourly rate must be a non-negative number", entry.ErrValidation)
	}
	if _, err := ParseCurrency(p.Currency); err != nil {
		return err
	}
	if p.IdleMinutes < 1 {
		return fmt.Errorf("%w: idle reminder must be at least 1 minute", entry.ErrValidation)
	}
	return nil
}

// ParseCurrency validates code against the supported set.
func ParseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("%w: currency %q: %v", entry.ErrValidation, code, err)
	}
	if !slices.Contains(Currencies, unit.String()) {
		return currency.Unit{}, fmt.Errorf("%w: currency %q is not supported", entry.ErrValidation, code)
	}
	return unit, nil
}

// Earnings converts worked minutes into money at the profile's rate.
func (p Profile) Earnings(minutes int64) float64 {
	return float64(minutes) / 60 * p.HourlyRate
}

// FormatMoney renders amount with two decimals followed by the currency code.
func (p Profile) FormatMoney(amount float64) string {
	code := p.Currency
	if unit, err := ParseCurrency(code); err == nil {
		code = unit.String()
	}
	return fmt.Sprintf("%.2f %s", amount, code)
}
