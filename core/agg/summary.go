package agg

import (
	"math"

	"github.com/huangsam/scorecard/schema"
)

// SummarizeGroups produces one headline per group of lf, in table order.
// A group with a rollup row takes its score from it; otherwise the score is
// the mean of the group's scored metrics rounded to one decimal, and each
// month averages the metrics that have a value for it.
func SummarizeGroups(lf schema.LongFormTable, months []string) []schema.GroupSummary {
	var out []schema.GroupSummary
	index := make(map[string]int)

	for _, r := range lf.Rows {
		i, ok := index[r.Group]
		if !ok {
			i = len(out)
			index[r.Group] = i
			out = append(out, schema.GroupSummary{Group: r.Group, Metrics: []schema.ScoreRow{}})
		}
		if r.IsGroupScore {
			out[i].FromRollup = true
			out[i].Score = float64(r.Score)
			out[i].MonthlyScores = monthAverages([]schema.ScoreRow{r}, months)
			continue
		}
		out[i].Metrics = append(out[i].Metrics, r)
	}

	for i := range out {
		if out[i].FromRollup {
			continue
		}
		var sum float64
		var n int
		for _, m := range out[i].Metrics {
			if m.NoData {
				continue
			}
			sum += float64(m.Score)
			n++
		}
		if n > 0 {
			out[i].Score = round1(sum / float64(n))
		}
		out[i].MonthlyScores = monthAverages(out[i].Metrics, months)
	}
	return out
}

func monthAverages(rows []schema.ScoreRow, months []string) []schema.MonthAverage {
	out := []schema.MonthAverage{}
	for _, month := range months {
		var sum float64
		var n int
		for _, r := range rows {
			if v, ok := r.MonthlyScore(month); ok {
				sum += float64(v)
				n++
			}
		}
		if n > 0 {
			out = append(out, schema.MonthAverage{Month: month, Score: round1(sum / float64(n))})
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
