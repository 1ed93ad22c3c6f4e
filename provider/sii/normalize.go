package sii

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sig-0/ufrates/failure"
)

// Normalize parses a UF value as published by the SII.
// The source uses "." as the thousands separator and "," as the decimal
// separator: "15.432,10" -> 15432.10
func Normalize(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, failure.New(failure.InvalidValue, "empty value")
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, failure.Wrap(
			failure.InvalidValue,
			fmt.Sprintf("unable to parse value %q", raw),
			err,
		)
	}

	return v, nil
}

// FormatValue renders a value with two decimals: 15432.1 -> "15432.10"
func FormatValue(v decimal.Decimal) string {
	return v.StringFixed(2)
}
