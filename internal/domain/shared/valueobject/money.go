package valueobject

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	GBP Currency = "GBP" // British Pound (default)
	EUR Currency = "EUR" // Euro
	USD Currency = "USD" // US Dollar
)

// DefaultCurrency is the currency labels are priced in
const DefaultCurrency = GBP

var currencySymbols = map[Currency]string{
	GBP: "£",
	EUR: "€",
	USD: "$",
}

// Symbol returns the printable glyph for the currency, or its code followed
// by a space when no glyph is known.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c) + " "
}

// currencyNoise is everything the catalog is known to put around an amount.
var currencyNoise = strings.NewReplacer(
	"£", "", "€", "", "$", "",
	"GBP", "", "EUR", "", "USD", "",
	",", "", " ", "", " ", "", "\t", "",
)

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyGBP creates Money in GBP
func NewMoneyGBP(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: GBP}
}

// Zero returns zero money in the given currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ParseMoney parses a possibly currency-formatted amount such as "£1,234.50".
// Currency symbols, codes, thousands separators and whitespace are stripped
// before the remaining text is parsed as a decimal. The amount is rounded to
// two places.
func ParseMoney(raw string, currency Currency) (Money, error) {
	cleaned := currencyNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return Zero(currency), nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero(currency), fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return NewMoney(d.Round(2), currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equals returns true if both amount and currency match
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed returns the amount as a string with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// Display formats the amount for printing, e.g. "£1,234.50".
func (m Money) Display() string {
	f, _ := m.amount.Round(2).Float64()
	return m.currency.Symbol() + message.NewPrinter(language.BritishEnglish).Sprintf("%.2f", f)
}

// Value implements driver.Valuer for database storage
// Stores as a numeric value (amount only)
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(2), nil
}

// Scan implements sql.Scanner for database retrieval.
// Currency defaults to DefaultCurrency if not already set.
func (m *Money) Scan(value any) error {
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	switch v := value.(type) {
	case nil:
		m.amount = decimal.Zero
		return nil
	case string:
		return m.scanString(v)
	case []byte:
		return m.scanString(string(v))
	case float64:
		m.amount = decimal.NewFromFloat(v)
		return nil
	case int64:
		m.amount = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}

func (m *Money) scanString(s string) error {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	return nil
}
