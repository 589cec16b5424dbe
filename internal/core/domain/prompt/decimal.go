package prompt

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalField wraps decimal.Decimal with GORM's Scanner/Valuer so LLM
// sampling parameters (temperature, top_p, frequency_penalty,
// presence_penalty) round-trip through storage and JSON without the
// binary float drift that would otherwise be observable in
// optimistic-lock version diffing. Follows a billing-code
// convention of never using float64 for a user-facing fractional number.
type DecimalField struct {
	decimal.Decimal
}

// NewDecimalField builds a DecimalField from a float64 literal, the
// shape request DTOs and defaults are expressed in.
func NewDecimalField(v float64) DecimalField {
	return DecimalField{Decimal: decimal.NewFromFloat(v)}
}

func (d DecimalField) Value() (driver.Value, error) {
	return d.Decimal.String(), nil
}

func (d *DecimalField) Scan(value any) error {
	if value == nil {
		d.Decimal = decimal.Zero
		return nil
	}
	switch v := value.(type) {
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("decimal field: %w", err)
		}
		d.Decimal = dec
	case []byte:
		dec, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("decimal field: %w", err)
		}
		d.Decimal = dec
	case float64:
		d.Decimal = decimal.NewFromFloat(v)
	case int64:
		d.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("decimal field: unsupported scan type %T", value)
	}
	return nil
}

func (d DecimalField) Float64() float64 {
	f, _ := d.Decimal.Float64()
	return f
}

func (d DecimalField) MarshalJSON() ([]byte, error) {
	return d.Decimal.MarshalJSON()
}

func (d *DecimalField) UnmarshalJSON(data []byte) error {
	return d.Decimal.UnmarshalJSON(data)
}
