// Package csvio converts between the Entry record shape and the
// date,type,category,amount CSV interchange format.
//
// Both directions split and join fields on bare commas with no quoting
// or escaping. Fields containing commas will not round-trip; this is a
// documented limitation of the format, kept symmetric on import and
// export rather than fixed on one side only.
package csvio

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

const dateFormat = "2006-01-02"

// requiredFields must all appear in the header for an import to proceed.
var requiredFields = []string{"date", "type", "category", "amount"}

// HeaderError aborts an entire import: without a valid header no row can
// be interpreted, so there is no partial parse.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Result is the outcome of parsing one CSV blob. Rows holds the entries
// that passed row-level validation; RowErrors records the rows that did
// not, one message per rejected row. A file can succeed partially.
type Result struct {
	Rows      []core.Entry
	RowErrors []string
}

// Import parses a CSV blob into candidate entries. Row failures are
// collected, not raised: a bad row is recorded as "Row N: reason" and
// parsing continues. Only a missing/invalid header fails the whole file.
//
// Valid rows are normalized on the way out: the category is rewritten to
// its display form and the type is lowercased. Owner, ID, and CreatedAt
// are left for the caller and the persistence layer to assign.
func Import(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(string(raw)), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return Result{}, fmt.Errorf("csv must have a header and at least one data row")
	}

	headers := splitFields(lines[0])
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}
	if missing := missingHeaders(headers); len(missing) > 0 {
		return Result{}, &HeaderError{Missing: missing}
	}

	var res Result
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		row := make(map[string]string, len(headers))
		values := splitFields(line)
		for idx, h := range headers {
			if idx < len(values) {
				row[h] = values[idx]
			}
		}

		e, rowErr := parseRow(row)
		if rowErr != "" {
			// Row numbers are 1-based file line numbers, so the first
			// data row is row 2.
			res.RowErrors = append(res.RowErrors, fmt.Sprintf("Row %d: %s", i+1, rowErr))
			continue
		}
		res.Rows = append(res.Rows, e)
	}

	return res, nil
}

func parseRow(row map[string]string) (core.Entry, string) {
	if row["date"] == "" || row["type"] == "" || row["category"] == "" || row["amount"] == "" {
		return core.Entry{}, "missing required field"
	}

	date, err := time.Parse(dateFormat, row["date"])
	if err != nil {
		return core.Entry{}, fmt.Sprintf("invalid date format %q (use YYYY-MM-DD)", row["date"])
	}

	kind, err := core.ParseKind(row["type"])
	if err != nil {
		return core.Entry{}, fmt.Sprintf("type must be %q or %q, got %q", core.Income, core.Expense, row["type"])
	}

	amount, err := decimal.NewFromString(row["amount"])
	if err != nil || !amount.IsPositive() {
		return core.Entry{}, fmt.Sprintf("amount must be a positive number, got %q", row["amount"])
	}

	return core.Entry{
		Kind:        kind,
		Amount:      amount,
		Category:    core.DisplayForm(row["category"]),
		Date:        date,
		Description: row["description"],
	}, ""
}

func missingHeaders(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, f := range requiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return missing
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Export writes the entry set as CSV, header first, one row per entry in
// the order given. Amounts serialize with their exact decimal value.
func Export(w io.Writer, entries []core.Entry) error {
	if _, err := io.WriteString(w, strings.Join(requiredFields, ",")+"\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		row := strings.Join([]string{
			e.Date.Format(dateFormat),
			string(e.Kind),
			e.Category,
			e.Amount.String(),
		}, ",")
		if _, err := io.WriteString(w, row+"\n"); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return nil
}

// ExportFilename names a download after the day it was produced.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("financy-export-%s.csv", t.Format(dateFormat))
}
