package csvio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financy/internal/core"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestImportPartialFailure(t *testing.T) {
	in := "date,type,category,amount\n" +
		"2024-01-01,expense,Food,100\n" +
		"bad,line,here\n" +
		"2024-01-02,income,Salary,5000"

	res, err := Import(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, res.Rows, 2, "valid rows survive a bad neighbor")
	require.Len(t, res.RowErrors, 1)
	assert.Contains(t, res.RowErrors[0], "Row 3")

	assert.Equal(t, core.Expense, res.Rows[0].Kind)
	assert.Equal(t, "Food", res.Rows[0].Category)
	assert.True(t, res.Rows[0].Amount.Equal(dec("100")))
	assert.Equal(t, core.NewDate(2024, 1, 1), res.Rows[0].Date)
	assert.Equal(t, core.Income, res.Rows[1].Kind)
}

func TestImportMissingHeaderAbortsFile(t *testing.T) {
	in := "date,category,amount\n2024-01-01,Food,100"

	_, err := Import(strings.NewReader(in))
	var herr *HeaderError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, []string{"type"}, herr.Missing)
}

func TestImportHeaderCaseInsensitive(t *testing.T) {
	in := "Date,TYPE,Category,Amount,Description\n2024-01-01,Expense,food,12.50,lunch"

	res, err := Import(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.RowErrors)
	assert.Equal(t, core.Expense, res.Rows[0].Kind, "type is lowercased")
	assert.Equal(t, "lunch", res.Rows[0].Description)
}

func TestImportRowValidation(t *testing.T) {
	cases := []struct {
		name string
		row  string
		want string
	}{
		{"missing field", "2024-01-01,expense,,100", "missing required field"},
		{"bad date", "01/02/2024,expense,Food,100", "invalid date format"},
		{"bad type", "2024-01-01,transfer,Food,100", `type must be "income" or "expense"`},
		{"zero amount", "2024-01-01,expense,Food,0", "positive number"},
		{"negative amount", "2024-01-01,expense,Food,-5", "positive number"},
		{"non-numeric amount", "2024-01-01,expense,Food,abc", "positive number"},
		{"impossible date", "2024-02-31,expense,Food,100", "invalid date format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Import(strings.NewReader("date,type,category,amount\n" + tc.row))
			require.NoError(t, err)
			assert.Empty(t, res.Rows)
			require.Len(t, res.RowErrors, 1)
			assert.Contains(t, res.RowErrors[0], "Row 2")
			assert.Contains(t, res.RowErrors[0], tc.want)
		})
	}
}

func TestImportSkipsBlankLines(t *testing.T) {
	in := "date,type,category,amount\n\n2024-01-01,expense,Food,100\n\n"

	res, err := Import(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.Empty(t, res.RowErrors)
}

func TestImportCategoryDisplayForm(t *testing.T) {
	in := "date,type,category,amount\n2024-01-01,expense,eating OUT,40"

	res, err := Import(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Eating Out", res.Rows[0].Category)
}

func TestImportHeaderOnly(t *testing.T) {
	_, err := Import(strings.NewReader("date,type,category,amount"))
	require.Error(t, err, "a header with no data rows is not an import")
}

func TestExport(t *testing.T) {
	entries := []core.Entry{
		{Kind: core.Expense, Amount: dec("100.50"), Category: "Food", Date: core.NewDate(2024, 1, 1)},
		{Kind: core.Income, Amount: dec("5000"), Category: "Salary", Date: core.NewDate(2024, 1, 2)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,type,category,amount", lines[0])
	assert.Equal(t, "2024-01-01,expense,Food,100.5", lines[1])
	assert.Equal(t, "2024-01-02,income,Salary,5000", lines[2])
}

func TestRoundTrip(t *testing.T) {
	// Export then re-import must reproduce the same
	// (date, type, category, amount) tuples, modulo DisplayForm casing.
	entries := []core.Entry{
		{Kind: core.Expense, Amount: dec("100.50"), Category: "Food", Date: core.NewDate(2024, 1, 1)},
		{Kind: core.Income, Amount: dec("5000"), Category: "Salary", Date: core.NewDate(2024, 1, 2)},
		{Kind: core.Expense, Amount: dec("0.99"), Category: "Coffee To Go", Date: core.NewDate(2024, 2, 10)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, entries))

	res, err := Import(&buf)
	require.NoError(t, err)
	require.Empty(t, res.RowErrors)
	require.Len(t, res.Rows, len(entries))

	for i := range entries {
		assert.Equal(t, entries[i].Date, res.Rows[i].Date)
		assert.Equal(t, entries[i].Kind, res.Rows[i].Kind)
		assert.Equal(t, core.DisplayForm(entries[i].Category), res.Rows[i].Category)
		assert.True(t, entries[i].Amount.Equal(res.Rows[i].Amount),
			"amount %s vs %s", entries[i].Amount, res.Rows[i].Amount)
	}
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "financy-export-2024-03-07.csv", ExportFilename(ts))
}
