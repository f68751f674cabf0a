package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind classifies an entry as money flowing in or out.
	Kind string

	// Entry is one recorded financial transaction. Entries are immutable
	// once created; the only lifecycle operation is deletion.
	Entry struct {
		ID          string
		OwnerID     string
		Kind        Kind
		Amount      decimal.Decimal
		Category    string // free text; grouping always goes through NormalizeKey
		Date        time.Time
		Description string
		CreatedAt   time.Time // assigned by the persistence layer, tie-break only
	}
)

var (
	ErrInvalidKind   = errors.New("kind must be income or expense")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidDate   = errors.New("date cannot be zero")
	ErrEmptyOwner    = errors.New("entry must have an owner")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind matches income/expense case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// NewDate builds a day-granularity UTC date, the attribution date of an entry.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
