package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() Entry {
	return Entry{
		ID:       "e1",
		OwnerID:  "u1",
		Kind:     Expense,
		Amount:   decimal.NewFromInt(100),
		Category: "Food",
		Date:     NewDate(2024, 1, 15),
	}
}

func TestEntryValidate(t *testing.T) {
	require.NoError(t, validEntry().Validate())

	e := validEntry()
	e.OwnerID = "  "
	assert.ErrorIs(t, e.Validate(), ErrEmptyOwner)

	e = validEntry()
	e.Kind = "transfer"
	assert.ErrorIs(t, e.Validate(), ErrInvalidKind)

	e = validEntry()
	e.Amount = decimal.Zero
	assert.ErrorIs(t, e.Validate(), ErrInvalidAmount)

	e = validEntry()
	e.Amount = decimal.NewFromFloat(-5)
	assert.ErrorIs(t, e.Validate(), ErrInvalidAmount)

	e = validEntry()
	e.Date = time.Time{}
	assert.ErrorIs(t, e.Validate(), ErrInvalidDate)
}

func TestEntryValidateEmptyCategoryIsLegal(t *testing.T) {
	// Missing category is not an error; it aggregates under the
	// reserved uncategorized key.
	e := validEntry()
	e.Category = ""
	assert.NoError(t, e.Validate())
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"income", "Income", " INCOME "} {
		k, err := ParseKind(s)
		require.NoError(t, err, "input %q", s)
		assert.Equal(t, Income, k)
	}
	k, err := ParseKind("expense")
	require.NoError(t, err)
	assert.Equal(t, Expense, k)

	_, err = ParseKind("transfer")
	assert.ErrorIs(t, err, ErrInvalidKind)
}
