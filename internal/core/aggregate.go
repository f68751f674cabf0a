// Aggregation over the current entry set. Everything here is a pure
// function of its input: snapshots are rebuilt from scratch on every
// store update and never patched incrementally, which rules out drift
// between the dashboard, analytics, and budget views.
package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RecentEntriesLimit is how many entries the dashboard shows in its
// recent-transactions panel.
const RecentEntriesLimit = 5

type (
	// CategoryTotals accumulates one category's flows.
	CategoryTotals struct {
		Display string // first-seen display form, presentation only
		Income  decimal.Decimal
		Expense decimal.Decimal
		Count   int
	}

	// MonthTotals accumulates one calendar month's flows.
	MonthTotals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
		Count   int
	}

	// Snapshot holds every aggregate derived from one entry set. It is
	// immutable once built; callers derive presentation rows from it.
	Snapshot struct {
		TotalIncome  decimal.Decimal
		TotalExpense decimal.Decimal
		Balance      decimal.Decimal
		ByCategory   map[CategoryKey]*CategoryTotals
		ByMonth      map[string]*MonthTotals
	}

	// CategoryRow is a per-category line for tables and chart series.
	CategoryRow struct {
		Key     CategoryKey
		Display string
		Income  decimal.Decimal
		Expense decimal.Decimal
		Net     decimal.Decimal
		Count   int
	}

	// MonthRow is a per-month line for trend tables and charts.
	MonthRow struct {
		Month       string // YYYY-MM
		Income      decimal.Decimal
		Expense     decimal.Decimal
		Net         decimal.Decimal
		Count       int
		SavingsRate int // round(net/income*100), 0 when income is 0
	}
)

// MonthKey derives the YYYY-MM bucket an entry's date falls into.
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}

// Aggregate computes a full snapshot from an entry set. It is total over
// any well-formed input: an empty set yields zero totals and empty maps,
// never an error.
func Aggregate(entries []Entry) Snapshot {
	snap := Snapshot{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   make(map[CategoryKey]*CategoryTotals),
		ByMonth:      make(map[string]*MonthTotals),
	}

	for _, e := range entries {
		key := NormalizeKey(e.Category)
		ct, ok := snap.ByCategory[key]
		if !ok {
			ct = &CategoryTotals{Display: DisplayForm(e.Category)}
			snap.ByCategory[key] = ct
		}

		mk := MonthKey(e.Date)
		mt, ok := snap.ByMonth[mk]
		if !ok {
			mt = &MonthTotals{}
			snap.ByMonth[mk] = mt
		}

		switch e.Kind {
		case Income:
			snap.TotalIncome = snap.TotalIncome.Add(e.Amount)
			ct.Income = ct.Income.Add(e.Amount)
			mt.Income = mt.Income.Add(e.Amount)
		case Expense:
			snap.TotalExpense = snap.TotalExpense.Add(e.Amount)
			ct.Expense = ct.Expense.Add(e.Amount)
			mt.Expense = mt.Expense.Add(e.Amount)
		}
		ct.Count++
		mt.Count++
	}

	snap.Balance = snap.TotalIncome.Sub(snap.TotalExpense)
	return snap
}

// FlowPercentages returns the rounded income and expense shares of total
// flow (income+expense). Both are 0 when there is no flow at all.
func (s Snapshot) FlowPercentages() (incomePct, expensePct int) {
	flow := s.TotalIncome.Add(s.TotalExpense)
	if flow.IsZero() {
		return 0, 0
	}
	return roundPercent(s.TotalIncome, flow), roundPercent(s.TotalExpense, flow)
}

// SavingsRate returns round(balance/income*100), or 0 when there is no
// income to save from.
func (s Snapshot) SavingsRate() int {
	if !s.TotalIncome.IsPositive() {
		return 0
	}
	return roundPercent(s.Balance, s.TotalIncome)
}

// CategoryRows returns one row per category, sorted by total flow
// (income+expense) descending. Ties break on the key so output is stable.
func (s Snapshot) CategoryRows() []CategoryRow {
	rows := make([]CategoryRow, 0, len(s.ByCategory))
	for key, ct := range s.ByCategory {
		rows = append(rows, CategoryRow{
			Key:     key,
			Display: ct.Display,
			Income:  ct.Income,
			Expense: ct.Expense,
			Net:     ct.Income.Sub(ct.Expense),
			Count:   ct.Count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ti := rows[i].Income.Add(rows[i].Expense)
		tj := rows[j].Income.Add(rows[j].Expense)
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// ExpenseBreakdown returns the categories with spending, sorted by
// expense descending. The first row, when present, is the top expense
// category shown on the analytics page.
func (s Snapshot) ExpenseBreakdown() []CategoryRow {
	var rows []CategoryRow
	for _, row := range s.CategoryRows() {
		if row.Expense.IsPositive() {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Expense.Equal(rows[j].Expense) {
			return rows[i].Expense.GreaterThan(rows[j].Expense)
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// MonthRows returns one row per month in chronological order, each with
// its own savings rate.
func (s Snapshot) MonthRows() []MonthRow {
	rows := make([]MonthRow, 0, len(s.ByMonth))
	for mk, mt := range s.ByMonth {
		row := MonthRow{
			Month:   mk,
			Income:  mt.Income,
			Expense: mt.Expense,
			Net:     mt.Income.Sub(mt.Expense),
			Count:   mt.Count,
		}
		if mt.Income.IsPositive() {
			row.SavingsRate = roundPercent(row.Net, mt.Income)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// AverageMonthly returns mean monthly income and expense across the
// months present in the rows. Both are zero for an empty input.
func AverageMonthly(rows []MonthRow) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	if len(rows) == 0 {
		return income, expense
	}
	for _, r := range rows {
		income = income.Add(r.Income)
		expense = expense.Add(r.Expense)
	}
	n := decimal.NewFromInt(int64(len(rows)))
	return income.Div(n), expense.Div(n)
}

// Recent returns up to n entries from the head of an already-ordered set.
func Recent(entries []Entry, n int) []Entry {
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[:n])
	return out
}

// roundPercent computes round(part/whole*100) as an int. whole must be
// non-zero; callers guard the zero-denominator case.
func roundPercent(part, whole decimal.Decimal) int {
	return int(part.Div(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
