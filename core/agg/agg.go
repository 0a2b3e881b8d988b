// Package agg turns a raw segment table into the long-form score table.
//
// Rows come out in a fixed order: groups in declaration order, and inside a
// group the rollup row (when the group's weight column is present) followed
// by each present metric in declaration order.
package agg

import (
	"math"

	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
)

// Aggregate computes overall and monthly scores for every configured metric of
// seg found in tbl. An unknown segment or an empty table yields an empty result
// that still carries the fixed column schema.
func Aggregate(tbl *table.Table, months []string, seg schema.Segment, reg *registry.Registry) schema.LongFormTable {
	out := schema.NewLongFormTable()
	if tbl == nil || tbl.IsEmpty() {
		return out
	}
	groups, err := reg.Groups(seg)
	if err != nil {
		return out
	}

	byMonth := splitByMonth(tbl, months)
	for _, g := range groups {
		if g.WeightVariable != "" && tbl.HasColumn(g.WeightVariable) {
			out.Rows = append(out.Rows, scoreRow(tbl, byMonth, months, seg, g.Name, g.WeightVariable, g.RollupLabel(), true))
		}
		for _, m := range g.Metrics {
			if tbl.HasColumn(m.ID) {
				out.Rows = append(out.Rows, scoreRow(tbl, byMonth, months, seg, g.Name, m.ID, m.Label, false))
			}
		}
	}
	return out
}

func scoreRow(tbl *table.Table, byMonth map[string]*table.Table, months []string, seg schema.Segment,
	group, column, label string, rollup bool,
) schema.ScoreRow {
	score, ok := Mean(tbl, column)
	row := schema.ScoreRow{
		Segment:       seg,
		Group:         group,
		MetricID:      column,
		MetricLabel:   label,
		Score:         Round(score),
		MonthlyScores: []schema.MonthScore{},
		IsGroupScore:  rollup,
		NoData:        !ok,
	}
	for _, month := range months {
		sub, found := byMonth[month]
		if !found {
			continue
		}
		if v, ok := Mean(sub, column); ok {
			row.MonthlyScores = append(row.MonthlyScores, schema.MonthScore{Month: month, Score: Round(v)})
		}
	}
	return row
}

// splitByMonth partitions the rows of tbl by month label, once per call.
func splitByMonth(tbl *table.Table, months []string) map[string]*table.Table {
	out := make(map[string]*table.Table, len(months))
	if !tbl.HasColumn(schema.WaveColumn) {
		return out
	}
	for _, month := range months {
		if _, done := out[month]; done {
			continue
		}
		out[month] = tbl.Filter(func(r table.Row) bool {
			wave, ok := r.Get(schema.WaveColumn)
			return ok && wave == month
		})
	}
	return out
}

// Mean is the arithmetic mean of the numeric values of column. It reports
// false when the column is absent or holds no numeric value.
func Mean(tbl *table.Table, column string) (float64, bool) {
	if !tbl.HasColumn(column) {
		return 0, false
	}
	var sum float64
	var n int
	for i := range tbl.Len() {
		if v, ok := tbl.Row(i).Float(column); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Round rounds half to even.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}
