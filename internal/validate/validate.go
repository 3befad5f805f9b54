// Package validate holds the pre-insert field checks for trade input.
// Every rule is evaluated; violations are reported together, never
// short-circuited, so a caller can show the full list at once.
package validate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Year bounds for trade input.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Trade checks trade fields and returns one message per violated rule.
// A nil return means the input is valid.
func Trade(product, category string, year int, tons, level, notion decimal.Decimal) []string {
	var errs []string

	if strings.TrimSpace(product) == "" {
		errs = append(errs, "product must not be empty")
	}
	if strings.TrimSpace(category) == "" {
		errs = append(errs, "category must not be empty")
	}
	if year < MinYear || year > MaxYear {
		errs = append(errs, "year must be between 2000 and 2100")
	}
	if !tons.IsPositive() {
		errs = append(errs, "tons must be greater than zero")
	}
	if level.IsNegative() {
		errs = append(errs, "level must not be negative")
	}
	if notion.IsZero() {
		errs = append(errs, "notion must not be zero")
	}

	return errs
}

// Error wraps a non-empty list of validation messages as an error.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
