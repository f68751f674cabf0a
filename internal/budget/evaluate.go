package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// Status classifies how a category's spend relates to its limit.
type Status string

// Alert is the evaluated state of one budget against the latest snapshot.
type Alert struct {
	Category   core.CategoryKey
	Display    string
	Limit      decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage int
	Status     Status
}

// warningRatio is the spend/limit threshold at which a budget starts warning.
var warningRatio = decimal.New(8, -1) // 0.8

// Evaluate classifies every limit against the snapshot's per-category
// expense totals. It is pure and stateless: called fresh whenever either
// the snapshot or the limit set changes, never cached.
//
// Classification compares exact decimals, not the rounded display
// percentage: spent=799.99 against limit=1000 shows 80% but is still OK,
// while spent=800.00 is the first warning value.
func Evaluate(byCategory map[core.CategoryKey]*core.CategoryTotals, limits []Limit) []Alert {
	alerts := make([]Alert, 0, len(limits))
	for _, l := range limits {
		spent := decimal.Zero
		if ct, ok := byCategory[l.Category]; ok {
			spent = ct.Expense
		}

		a := Alert{
			Category: l.Category,
			Display:  l.Display,
			Limit:    l.Limit,
			Spent:    spent,
			Status:   StatusOK,
		}
		if l.Limit.IsPositive() {
			a.Percentage = int(spent.Div(l.Limit).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		}
		a.Remaining = decimal.Max(decimal.Zero, l.Limit.Sub(spent))

		switch {
		case spent.GreaterThan(l.Limit):
			a.Status = StatusExceeded
		case spent.GreaterThanOrEqual(l.Limit.Mul(warningRatio)) && spent.LessThan(l.Limit):
			a.Status = StatusWarning
		}

		alerts = append(alerts, a)
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Percentage != alerts[j].Percentage {
			return alerts[i].Percentage > alerts[j].Percentage
		}
		return alerts[i].Category < alerts[j].Category
	})
	return alerts
}
