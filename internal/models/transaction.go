package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, matching the stored rows.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction type values. The amount sign is the source of truth; Type is
// kept on the row for wire compatibility and must agree with the sign.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Date is a calendar date with no time-of-day semantics. It is stored as a
// Postgres DATE and always normalized to UTC midnight so comparisons never
// shift across timezone boundaries.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("date must be a JSON string")
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Format(dateLayout), nil
}

// Transaction represents a single signed monetary event. Positive amounts
// are income, negative amounts are expenses. Field names are the wire
// contract with existing stored data and must not change.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	UserID      int             `json:"user_id" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Type        string          `json:"type" db:"type"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Date        Date            `json:"date" db:"date"`
	Notes       string          `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TypeForAmount derives the type string from the amount sign.
func TypeForAmount(amount decimal.Decimal) string {
	if amount.Sign() > 0 {
		return TypeIncome
	}
	return TypeExpense
}

// IsIncome reports whether the transaction is an income entry.
func (t Transaction) IsIncome() bool {
	return t.Amount.Sign() > 0
}

// AbsAmount returns the unsigned magnitude.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

var (
	ErrZeroAmount       = errors.New("amount must be non-zero")
	ErrTypeSignMismatch = errors.New("type does not match amount sign")
	ErrEmptyCategory    = errors.New("category is required")
	ErrEmptyDescription = errors.New("description is required")
	ErrEmptyDate        = errors.New("date is required")
)

// Validate enforces the row invariants before a transaction reaches the
// store: non-zero amount, sign/type agreement, and required fields.
func (t Transaction) Validate() error {
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if t.Type != TypeForAmount(t.Amount) {
		return ErrTypeSignMismatch
	}
	if t.Category == "" {
		return ErrEmptyCategory
	}
	if t.Description == "" {
		return ErrEmptyDescription
	}
	if t.Date.IsZero() {
		return ErrEmptyDate
	}
	return nil
}
