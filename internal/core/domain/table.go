package domain

import (
	"sort"
	"strconv"
	"strings"
)

// TableRow is a single row of a lookup table. Column names are normalized to
// lower case, the column set is not fixed per table.
type TableRow struct {
	columns map[string]string
}

// NewTableRow creates an empty row.
func NewTableRow() *TableRow {
	return &TableRow{columns: map[string]string{}}
}

// Get returns the value of the given column, or the empty string if the
// column is absent. Safe to call on a nil row, so rule scripts can chain
// Where(...).Get(...) without a nil check.
func (r *TableRow) Get(columnName string) string {
	if r == nil || columnName == "" {
		return ""
	}
	return r.columns[strings.ToLower(columnName)]
}

// Put sets the value of the given column.
func (r *TableRow) Put(columnName, columnValue string) {
	r.columns[strings.ToLower(columnName)] = columnValue
}

// Size returns the number of columns set on this row.
func (r *TableRow) Size() int {
	if r == nil {
		return 0
	}
	return len(r.columns)
}

// Keys returns the column names set on this row.
func (r *TableRow) Keys() []string {
	keys := make([]string, 0, len(r.columns))
	for k := range r.columns {
		keys = append(keys, k)
	}
	return keys
}

func (r *TableRow) get(columnName string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.columns[strings.ToLower(columnName)]
	return v, ok
}

// Table is an externally authored, schema-less lookup dataset (chart of
// accounts, project list, ...) queried and mutated by rule runs. The rows
// keep their file order until SortBy is called.
type Table struct {
	name     string
	filename string
	rows     []*TableRow
}

// NewTable creates an empty table with the given name and backing filename.
func NewTable(name, filename string) *Table {
	return &Table{name: name, filename: filename}
}

// Name returns the table name the rule scripts see.
func (t *Table) Name() string { return t.name }

// Filename returns the name of the file the table was loaded from.
func (t *Table) Filename() string { return t.filename }

// Rows returns the rows in their current order.
func (t *Table) Rows() []*TableRow { return t.rows }

// Add appends a row to the table.
func (t *Table) Add(row *TableRow) {
	t.rows = append(t.rows, row)
}

// Size returns the number of rows.
func (t *Table) Size() int {
	return len(t.rows)
}

// Contains reports whether any row has the given value in the given column,
// compared case-insensitively.
func (t *Table) Contains(column, value string) bool {
	return t.Where(column, value) != nil
}

// Where returns the first row whose column equals the given value
// (case-insensitively), or nil if there is none.
func (t *Table) Where(column, value string) *TableRow {
	for _, row := range t.rows {
		if v, ok := row.get(column); ok && strings.EqualFold(v, value) {
			return row
		}
	}
	return nil
}

// Max returns the largest integer value found in the given column.
// Non-numeric and negative values are ignored; if no usable value exists
// at all, 0 is returned.
func (t *Table) Max(column string) int {
	max := 0
	for _, row := range t.rows {
		if n, err := strconv.Atoi(row.Get(column)); err == nil && n > max {
			max = n
		}
	}
	return max
}

// ColumnNames returns the union of the column names of all rows, sorted.
func (t *Table) ColumnNames() []string {
	seen := map[string]bool{}
	for _, row := range t.rows {
		for _, k := range row.Keys() {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SortBy sorts the rows by the given columns, in order. The sort is stable,
// absent values sort first, and two numeric-looking values compare
// numerically; everything else compares lexicographically.
func (t *Table) SortBy(columns ...string) {
	if len(columns) == 0 {
		return
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		for _, column := range columns {
			if c := compareCells(t.rows[i], t.rows[j], column); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareCells(a, b *TableRow, column string) int {
	av, aok := a.get(column)
	bv, bok := b.get(column)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	an, aerr := strconv.Atoi(av)
	bn, berr := strconv.Atoi(bv)
	if aerr == nil && berr == nil {
		return an - bn
	}
	return strings.Compare(av, bv)
}
