package validate_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eduardodiamandis/pnl-engine/internal/validate"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestTrade_Valid(t *testing.T) {
	errs := validate.Trade("SoyBean", "FOB Vessel", 2024, d(100), d(0.95), d(3500))
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestTrade_AllRulesReported(t *testing.T) {
	// Every rule violated at once: all messages must come back together,
	// not just the first.
	errs := validate.Trade("", "  ", 1999, d(0), d(-1), d(0))
	if len(errs) != 6 {
		t.Fatalf("expected 6 errors, got %d: %v", len(errs), errs)
	}
}

func TestTrade_Rules(t *testing.T) {
	tests := []struct {
		name    string
		product string
		cat     string
		year    int
		tons    decimal.Decimal
		level   decimal.Decimal
		notion  decimal.Decimal
		wantMsg string
	}{
		{"blank product", "   ", "FOB Vessel", 2024, d(1), d(1), d(1), "product"},
		{"blank category", "SoyBean", "", 2024, d(1), d(1), d(1), "category"},
		{"year too low", "SoyBean", "FOB Vessel", 1999, d(1), d(1), d(1), "year"},
		{"year too high", "SoyBean", "FOB Vessel", 2101, d(1), d(1), d(1), "year"},
		{"zero tons", "SoyBean", "FOB Vessel", 2024, d(0), d(1), d(1), "tons"},
		{"negative tons", "SoyBean", "FOB Vessel", 2024, d(-5), d(1), d(1), "tons"},
		{"negative level", "SoyBean", "FOB Vessel", 2024, d(1), d(-0.5), d(1), "level"},
		{"zero notion", "SoyBean", "FOB Vessel", 2024, d(1), d(1), d(0), "notion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validate.Trade(tt.product, tt.cat, tt.year, tt.tons, tt.level, tt.notion)
			if len(errs) == 0 {
				t.Fatal("expected a validation error, got none")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a message mentioning %q, got %v", tt.wantMsg, errs)
			}
		})
	}
}

func TestTrade_YearBounds(t *testing.T) {
	for _, year := range []int{2000, 2100} {
		errs := validate.Trade("SoyBean", "FOB Vessel", year, d(1), d(1), d(1))
		if len(errs) != 0 {
			t.Errorf("year %d should be valid (bounds are inclusive), got %v", year, errs)
		}
	}
}

func TestError_Message(t *testing.T) {
	err := &validate.Error{Messages: []string{"a", "b"}}
	if !strings.Contains(err.Error(), "a; b") {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}
