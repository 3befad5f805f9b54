// Package product carries the commodity reference data: the known product
// catalog, trading categories, shipment months, and the notional
// conversion factors.
package product

import "github.com/shopspring/decimal"

// Products traded by the desk. Free-form product names are accepted by
// the record services; this list backs UI drop-downs and conversion.
var Products = []string{"SoyBean", "SoyMeal", "YelCorn"}

// Categories of physical and paper trades.
var Categories = []string{"FOB Vessel", "FOB Paper", "C&F Vessel"}

// Months used as shipment windows.
var Months = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Conversion factors from tons to the notional unit per product.
// Illustrative constants; unit conversion correctness is out of scope.
var conversionFactors = map[string]decimal.Decimal{
	"SoyBean": decimal.RequireFromString("36.7454"),
	"SoyMeal": decimal.RequireFromString("1.1023"),
	"YelCorn": decimal.RequireFromString("39.3678"),
}

// ConversionFactor returns the tons-to-notional factor for a product.
// Unknown products convert 1:1.
func ConversionFactor(prod string) decimal.Decimal {
	if f, ok := conversionFactors[prod]; ok {
		return f
	}
	return decimal.NewFromInt(1)
}

// Notional computes the nominal monetary size of a trade:
// factor * level * tons.
func Notional(prod string, level, tons decimal.Decimal) decimal.Decimal {
	return ConversionFactor(prod).Mul(level).Mul(tons)
}

// KnownMonth reports whether ship names one of the twelve months.
func KnownMonth(ship string) bool {
	for _, m := range Months {
		if m == ship {
			return true
		}
	}
	return false
}
