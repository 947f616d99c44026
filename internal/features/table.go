package features

import (
	"sort"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Table is the feature table of one run, one row per driver ordered by code.
type Table struct {
	rows  []models.FeatureVector
	index map[string]int
}

// NewTable builds a table from rows. Later duplicates of a driver are dropped.
func NewTable(rows []models.FeatureVector) *Table {
	seen := make(map[string]bool, len(rows))
	unique := make([]models.FeatureVector, 0, len(rows))
	for _, r := range rows {
		if seen[r.Driver] {
			continue
		}
		seen[r.Driver] = true
		unique = append(unique, r)
	}
	return newTable(unique)
}

func newTable(rows []models.FeatureVector) *Table {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Driver < rows[j].Driver })
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		index[r.Driver] = i
	}
	return &Table{rows: rows, index: index}
}

// Len returns the number of drivers in the table
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in driver order. The slice must not be modified.
func (t *Table) Rows() []models.FeatureVector {
	return t.rows
}

// Row returns the row of a driver
func (t *Table) Row(driver string) (*models.FeatureVector, bool) {
	i, ok := t.index[driver]
	if !ok {
		return nil, false
	}
	return &t.rows[i], true
}

// Drivers returns the driver codes in table order
func (t *Table) Drivers() []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Driver
	}
	return out
}

// Restrict returns a table limited to the given drivers.
func (t *Table) Restrict(drivers []string) *Table {
	keep := make(map[string]bool, len(drivers))
	for _, d := range drivers {
		keep[d] = true
	}
	rows := make([]models.FeatureVector, 0, len(drivers))
	for _, r := range t.rows {
		if keep[r.Driver] {
			rows = append(rows, r)
		}
	}
	return newTable(rows)
}

// FallbackCount returns how many fields across the table were defaulted.
func (t *Table) FallbackCount() int {
	n := 0
	for _, r := range t.rows {
		n += len(r.Fallbacks)
	}
	return n
}
