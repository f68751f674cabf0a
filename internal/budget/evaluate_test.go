package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financy/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func spendOf(category, amount string) map[core.CategoryKey]*core.CategoryTotals {
	return map[core.CategoryKey]*core.CategoryTotals{
		core.NormalizeKey(category): {Display: core.DisplayForm(category), Expense: dec(amount), Count: 1},
	}
}

func evalOne(t *testing.T, spent string) Alert {
	t.Helper()
	limits := []Limit{{Category: "food", Display: "Food", Limit: dec("1000")}}
	alerts := Evaluate(spendOf("food", spent), limits)
	require.Len(t, alerts, 1)
	return alerts[0]
}

func TestEvaluateClassificationBoundaries(t *testing.T) {
	a := evalOne(t, "800")
	assert.Equal(t, StatusWarning, a.Status)
	assert.Equal(t, 80, a.Percentage)

	a = evalOne(t, "799.99")
	assert.Equal(t, StatusOK, a.Status, "just under the 80%% threshold")

	a = evalOne(t, "1000.01")
	assert.Equal(t, StatusExceeded, a.Status)

	a = evalOne(t, "1000")
	assert.Equal(t, StatusOK, a.Status, "exactly at the limit is not exceeded")
	assert.Equal(t, 100, a.Percentage)

	a = evalOne(t, "999.99")
	assert.Equal(t, StatusWarning, a.Status)
}

func TestEvaluateRemaining(t *testing.T) {
	a := evalOne(t, "300")
	assert.True(t, a.Remaining.Equal(dec("700")), "remaining: %s", a.Remaining)

	a = evalOne(t, "1200")
	assert.True(t, a.Remaining.IsZero(), "remaining clamps at zero, got %s", a.Remaining)
}

func TestEvaluateNoSpendInCategory(t *testing.T) {
	limits := []Limit{{Category: "travel", Display: "Travel", Limit: dec("500")}}
	alerts := Evaluate(spendOf("food", "900"), limits)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Spent.IsZero())
	assert.Equal(t, StatusOK, alerts[0].Status)
	assert.Zero(t, alerts[0].Percentage)
}

func TestEvaluateSortedByPercentageDescending(t *testing.T) {
	byCategory := map[core.CategoryKey]*core.CategoryTotals{
		"food":   {Expense: dec("100")},
		"travel": {Expense: dec("900")},
	}
	limits := []Limit{
		{Category: "food", Limit: dec("1000")},
		{Category: "travel", Limit: dec("1000")},
	}
	alerts := Evaluate(byCategory, limits)
	require.Len(t, alerts, 2)
	assert.Equal(t, core.CategoryKey("travel"), alerts[0].Category)
	assert.Equal(t, core.CategoryKey("food"), alerts[1].Category)
}

func TestRegistrySetValidation(t *testing.T) {
	r := NewRegistry()

	assert.ErrorIs(t, r.Set("u1", "food", decimal.Zero), ErrNonPositiveLimit)
	assert.ErrorIs(t, r.Set("u1", "food", dec("-10")), ErrNonPositiveLimit)
	assert.ErrorIs(t, r.Set("u1", "", dec("100")), ErrEmptyCategory)
	assert.Empty(t, r.List("u1"))
}

func TestRegistryOneLimitPerCategoryKey(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Set("u1", "Food", dec("500")))
	require.NoError(t, r.Set("u1", " food ", dec("800")))

	limits := r.List("u1")
	require.Len(t, limits, 1, "case/space variants share one key")
	assert.Equal(t, core.CategoryKey("food"), limits[0].Category)
	assert.True(t, limits[0].Limit.Equal(dec("800")), "second set replaces the first")
}

func TestRegistryOwnersAreIsolated(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Set("u1", "food", dec("500")))
	require.NoError(t, r.Set("u2", "food", dec("900")))

	r.Remove("u1", "food")
	assert.Empty(t, r.List("u1"))
	require.Len(t, r.List("u2"), 1)
	assert.True(t, r.List("u2")[0].Limit.Equal(dec("900")))
}
