package http

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"financy/internal/budget"
	"financy/internal/core"
)

type dashboardResponse struct {
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	Balance        decimal.Decimal `json:"balance"`
	IncomePercent  int             `json:"income_percent"`
	ExpensePercent int             `json:"expense_percent"`
	SavingsRate    int             `json:"savings_rate"`
	RecentEntries  []entryJSON     `json:"recent_entries"`
	BudgetAlerts   []alertJSON     `json:"budget_alerts"`
}

type categoryRowJSON struct {
	Category string          `json:"category"`
	Display  string          `json:"display"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

type monthRowJSON struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Net         decimal.Decimal `json:"net"`
	Count       int             `json:"count"`
	SavingsRate int             `json:"savings_rate"`
}

type alertJSON struct {
	Category   string          `json:"category"`
	Display    string          `json:"display"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage int             `json:"percentage"`
	Status     string          `json:"status"`
}

func toCategoryRows(rows []core.CategoryRow) []categoryRowJSON {
	out := make([]categoryRowJSON, len(rows))
	for i, row := range rows {
		out[i] = categoryRowJSON{
			Category: string(row.Key),
			Display:  row.Display,
			Income:   row.Income,
			Expense:  row.Expense,
			Net:      row.Net,
			Count:    row.Count,
		}
	}
	return out
}

func toAlerts(alerts []budget.Alert) []alertJSON {
	out := make([]alertJSON, len(alerts))
	for i, a := range alerts {
		out[i] = alertJSON{
			Category:   string(a.Category),
			Display:    a.Display,
			Limit:      a.Limit,
			Spent:      a.Spent,
			Remaining:  a.Remaining,
			Percentage: a.Percentage,
			Status:     string(a.Status),
		}
	}
	return out
}

// handleDashboard serves the overview payload: totals, flow shares,
// savings rate, recent transactions, and budget alerts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	upd, err := s.snapshot(r.Context(), id.OwnerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load entries",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to load entries")
		return
	}

	snap := core.Aggregate(upd.Entries)
	incomePct, expensePct := snap.FlowPercentages()
	alerts := budget.Evaluate(snap.ByCategory, s.budgets.List(id.OwnerID))

	writeJSON(w, r, http.StatusOK, dashboardResponse{
		TotalIncome:    snap.TotalIncome,
		TotalExpense:   snap.TotalExpense,
		Balance:        snap.Balance,
		IncomePercent:  incomePct,
		ExpensePercent: expensePct,
		SavingsRate:    snap.SavingsRate(),
		RecentEntries:  toEntryJSONs(core.Recent(upd.Entries, core.RecentEntriesLimit)),
		BudgetAlerts:   toAlerts(alerts),
	})
}

type categoryAnalyticsResponse struct {
	Categories       []categoryRowJSON `json:"categories"`
	ExpenseBreakdown []categoryRowJSON `json:"expense_breakdown"`
	TopExpense       *categoryRowJSON  `json:"top_expense,omitempty"`
}

func (s *Server) handleCategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	upd, err := s.snapshot(r.Context(), id.OwnerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load entries",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to load entries")
		return
	}

	snap := core.Aggregate(upd.Entries)
	resp := categoryAnalyticsResponse{
		Categories:       toCategoryRows(snap.CategoryRows()),
		ExpenseBreakdown: toCategoryRows(snap.ExpenseBreakdown()),
	}
	if len(resp.ExpenseBreakdown) > 0 {
		resp.TopExpense = &resp.ExpenseBreakdown[0]
	}

	writeJSON(w, r, http.StatusOK, resp)
}

type monthlyAnalyticsResponse struct {
	Months         []monthRowJSON  `json:"months"`
	AverageIncome  decimal.Decimal `json:"average_income"`
	AverageExpense decimal.Decimal `json:"average_expense"`
}

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	upd, err := s.snapshot(r.Context(), id.OwnerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load entries",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to load entries")
		return
	}

	snap := core.Aggregate(upd.Entries)
	rows := snap.MonthRows()
	avgIncome, avgExpense := core.AverageMonthly(rows)

	months := make([]monthRowJSON, len(rows))
	for i, row := range rows {
		months[i] = monthRowJSON{
			Month:       row.Month,
			Income:      row.Income,
			Expense:     row.Expense,
			Net:         row.Net,
			Count:       row.Count,
			SavingsRate: row.SavingsRate,
		}
	}

	writeJSON(w, r, http.StatusOK, monthlyAnalyticsResponse{
		Months:         months,
		AverageIncome:  avgIncome,
		AverageExpense: avgExpense,
	})
}
