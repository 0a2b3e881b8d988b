// Package filter narrows a raw segment table to the rows matching a selection.
package filter

import (
	"slices"
	"strings"

	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/schema"
)

// Criteria holds one value per filter dimension. schema.OverallSelection, or an
// empty value, leaves a dimension unfiltered.
type Criteria struct {
	Branch          string
	AppointmentType string
	Months          []string
	Nationality     string
	Evaluator       string
}

// FromSelection converts a user selection into filter criteria.
func FromSelection(sel schema.Selection) Criteria {
	return Criteria{
		Branch:          sel.Branch,
		AppointmentType: sel.AppointmentType,
		Months:          ValidateMonths(sel.Months),
		Nationality:     sel.Nationality,
		Evaluator:       sel.Evaluator,
	}
}

// ValidateMonths normalizes a month selection. An empty selection means all months.
func ValidateMonths(selected []string) []string {
	var out []string
	for _, m := range selected {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return []string{schema.OverallSelection}
	}
	return out
}

// AllMonths reports whether a month selection disables month filtering.
func AllMonths(months []string) bool {
	return len(months) == 0 || slices.Contains(months, schema.OverallSelection)
}

type predicate func(table.Row) bool

// Apply returns a new table with the rows of tbl that pass every active
// dimension. Dimensions whose column tbl does not have are skipped, and a
// row with a missing value in an active dimension never matches.
func Apply(tbl *table.Table, c Criteria) *table.Table {
	var preds []predicate
	add := func(column, value string) {
		if active(value) && tbl.HasColumn(column) {
			preds = append(preds, equals(column, value))
		}
	}
	add(schema.BranchColumn, c.Branch)
	add(schema.AppointmentColumn, c.AppointmentType)
	add(schema.NationalityColumn, c.Nationality)
	add(schema.EvaluatorColumn, c.Evaluator)
	if !AllMonths(c.Months) && tbl.HasColumn(schema.WaveColumn) {
		preds = append(preds, oneOf(schema.WaveColumn, c.Months))
	}

	return tbl.Filter(func(r table.Row) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	})
}

func active(value string) bool {
	return value != "" && value != schema.OverallSelection
}

func equals(column, value string) predicate {
	return func(r table.Row) bool {
		v, ok := r.Get(column)
		return ok && v == value
	}
}

func oneOf(column string, values []string) predicate {
	return func(r table.Row) bool {
		v, ok := r.Get(column)
		return ok && slices.Contains(values, v)
	}
}
