package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/internal/parquet"
	"github.com/huangsam/scorecard/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintScorecard outputs one scorecard, dispatching based on the output format configured.
func PrintScorecard(card *schema.Scorecard, thresholds schema.ScoreThresholds, cfg *contract.Config, duration time.Duration) error {
	months := scoredMonths(card.Months, card.Table.Rows)
	return report{
		value:   card,
		header:  scoreRowsHeader(months),
		records: func() [][]string { return scoreRowRecords(card.Table.Rows, months, thresholds) },
		parquet: func(w io.Writer) error { return parquet.WriteScoreRows(w, card.Table.Rows) },
		text: func(w io.Writer) error {
			return writeScorecardText(w, card, thresholds, cfg, duration)
		},
	}.write(cfg)
}

// PrintCombined outputs the role's long-form table across every segment.
func PrintCombined(role string, lf schema.LongFormTable, thresholds schema.ScoreThresholds, cfg *contract.Config) error {
	return report{
		value: struct {
			Role string `json:"role"`
			schema.LongFormTable
		}{role, lf},
		header:  scoreRowsHeader(nil),
		records: func() [][]string { return scoreRowRecords(lf.Rows, nil, thresholds) },
		parquet: func(w io.Writer) error { return parquet.WriteScoreRows(w, lf.Rows) },
		text: func(w io.Writer) error {
			return writeCombinedText(w, role, lf, thresholds, cfg)
		},
	}.write(cfg)
}

// scoredMonths keeps the months, in order, that at least one row has a score for.
func scoredMonths(months []string, rows []schema.ScoreRow) []string {
	var out []string
	for _, m := range months {
		for _, r := range rows {
			if _, ok := r.MonthlyScore(m); ok {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// describeSelection renders the active filters on one line.
func describeSelection(sel schema.Selection) string {
	months := strings.Join(sel.Months, ", ")
	if months == "" {
		months = schema.OverallSelection
	}
	return fmt.Sprintf("Branch: %s | Appointment: %s | Months: %s | Nationality: %s | Evaluator: %s",
		sel.Branch, sel.AppointmentType, months, sel.Nationality, sel.Evaluator)
}

// writeScorecardText writes the human-readable scorecard.
func writeScorecardText(w io.Writer, card *schema.Scorecard, thresholds schema.ScoreThresholds, cfg *contract.Config, duration time.Duration) error {
	paint := bandFunc(cfg)
	muted := noDataFunc(cfg)
	months := scoredMonths(card.Months, card.Table.Rows)

	if _, err := fmt.Fprintf(w, "%s | Role: %s\n%s\nBase: %d Visits\n\n",
		card.SegmentName, card.Role, describeSelection(card.Selection), card.VisitCount); err != nil {
		return err
	}
	if card.Table.Len() == 0 {
		_, err := fmt.Fprintln(w, "No scores available for this selection.")
		return err
	}

	// 1. Group summary
	summary := tablewriter.NewWriter(w)
	defer func() { _ = summary.Close() }()
	summary.Header(append([]string{"Group", "Score", "Band"}, months...))
	summary.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var summaryData [][]string
	for _, g := range card.Groups {
		band := thresholds.Label(g.Score)
		row := []string{g.Group, paint(band, formatAverage(g.Score)), paint(band, string(band))}
		for _, m := range months {
			row = append(row, monthAverageCell(g, m))
		}
		summaryData = append(summaryData, row)
	}
	if err := summary.Bulk(summaryData); err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	// 2. Metric rows
	maxLabel := GetMaxLabelWidth(cfg, 2+len(months))
	metrics := tablewriter.NewWriter(w)
	defer func() { _ = metrics.Close() }()
	metrics.Header(append([]string{"Group", "ID", "Metric", "Score", "Band"}, months...))
	metrics.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, r := range card.Table.Rows {
		label := contract.TruncateLabel(r.MetricLabel, maxLabel)
		score, band := formatScore(r.Score, r.NoData), rowBand(r, thresholds)
		if r.NoData {
			score = muted(score)
		} else {
			score = paint(schema.ColorLabel(band), score)
			band = paint(schema.ColorLabel(band), band)
		}
		row := []string{r.Group, r.MetricID, label, score, band}
		for _, m := range months {
			row = append(row, monthCell(r, m))
		}
		data = append(data, row)
	}
	if err := metrics.Bulk(data); err != nil {
		return err
	}
	if err := metrics.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Scorecard built in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend)
	return err
}

// monthAverageCell renders a group's score for one month, or "" if it has none.
func monthAverageCell(g schema.GroupSummary, month string) string {
	for _, ma := range g.MonthlyScores {
		if ma.Month == month {
			return formatAverage(ma.Score)
		}
	}
	return ""
}

// writeCombinedText writes the human-readable combined table.
func writeCombinedText(w io.Writer, role string, lf schema.LongFormTable, thresholds schema.ScoreThresholds, cfg *contract.Config) error {
	paint := bandFunc(cfg)
	muted := noDataFunc(cfg)

	if _, err := fmt.Fprintf(w, "Combined scores | Role: %s | Rows: %d\n", role, lf.Len()); err != nil {
		return err
	}

	maxLabel := GetMaxLabelWidth(cfg, 3)
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Segment", "Group", "ID", "Metric", "Score", "Band"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, r := range lf.Rows {
		score, band := formatScore(r.Score, r.NoData), rowBand(r, thresholds)
		if r.NoData {
			score = muted(score)
		} else {
			score = paint(schema.ColorLabel(band), score)
			band = paint(schema.ColorLabel(band), band)
		}
		data = append(data, []string{
			string(r.Segment), r.Group, r.MetricID, contract.TruncateLabel(r.MetricLabel, maxLabel), score, band,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// scoreRowsHeader is the CSV header of long-form rows, with one column per month.
func scoreRowsHeader(months []string) []string {
	header := []string{"segment", "group", "metric_id", "metric", "score", "band", "is_group_score", "no_data"}
	for _, m := range months {
		header = append(header, "month_"+m)
	}
	return header
}

func scoreRowRecords(rows []schema.ScoreRow, months []string, thresholds schema.ScoreThresholds) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := []string{
			string(r.Segment),
			r.Group,
			r.MetricID,
			r.MetricLabel,
			strconv.Itoa(r.Score),
			rowBand(r, thresholds),
			strconv.FormatBool(r.IsGroupScore),
			strconv.FormatBool(r.NoData),
		}
		for _, m := range months {
			rec = append(rec, monthCell(r, m))
		}
		out = append(out, rec)
	}
	return out
}
