package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// withOverall prefixes the Overall sentinel to a list of choices.
func withOverall(values []string) []string {
	return append([]string{schema.OverallSelection}, values...)
}

// PrintOptions outputs the selectable filter values of one segment.
// Every dimension is offered with Overall first.
func PrintOptions(opts schema.FilterOptions, cfg *contract.Config) error {
	dims := []struct {
		name   string
		values []string
	}{
		{"month", opts.Months},
		{"branch", opts.Branches},
		{"appointment", opts.AppointmentTypes},
		{"nationality", opts.Nationalities},
		{"evaluator", opts.Evaluators},
	}

	value := map[string]any{"segment": opts.Segment}
	var records [][]string
	for _, d := range dims {
		value[d.name] = withOverall(d.values)
		for _, v := range withOverall(d.values) {
			records = append(records, []string{string(opts.Segment), d.name, v})
		}
	}

	return report{
		value:   value,
		header:  []string{"segment", "dimension", "value"},
		records: func() [][]string { return records },
		text: func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "Filter options for %s\n", opts.Segment); err != nil {
				return err
			}
			table := tablewriter.NewWriter(w)
			defer func() { _ = table.Close() }()
			table.Header([]string{"Dimension", "Choices", "Values"})
			var data [][]string
			for _, d := range dims {
				values := withOverall(d.values)
				data = append(data, []string{d.name, strconv.Itoa(len(values)), strings.Join(values, ", ")})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}.write(cfg)
}

// PrintSegments outputs every configured segment with its row count.
func PrintSegments(infos []schema.SegmentInfo, cfg *contract.Config) error {
	return report{
		value:  infos,
		header: []string{"segment", "name", "source", "rows", "months"},
		records: func() [][]string {
			var out [][]string
			for _, info := range infos {
				out = append(out, []string{string(info.Segment), info.Name, info.Source, strconv.Itoa(info.Rows), strings.Join(info.Months, ";")})
			}
			return out
		},
		text: func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			defer func() { _ = table.Close() }()
			table.Header([]string{"Segment", "Name", "Rows", "Months", "Source"})
			table.Configure(func(c *tablewriter.Config) {
				c.Row.Alignment.Global = tw.AlignLeft
			})
			var data [][]string
			for _, info := range infos {
				rows := strconv.Itoa(info.Rows)
				if info.Rows == 0 && cfg.UseColors {
					rows = contract.NoDataColor.Sprint(rows)
				}
				data = append(data, []string{
					string(info.Segment), info.Name, rows, strings.Join(info.Months, ", "), info.Source,
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}.write(cfg)
}

// PrintGroups outputs the metric groups configured for a segment.
func PrintGroups(seg schema.Segment, groups []schema.MetricGroupInfo, cfg *contract.Config) error {
	return report{
		value: struct {
			Segment schema.Segment           `json:"segment"`
			Groups  []schema.MetricGroupInfo `json:"groups"`
		}{seg, groups},
		header: []string{"segment", "group", "weight_variable", "metric_id", "metric"},
		records: func() [][]string {
			var out [][]string
			for _, g := range groups {
				for _, m := range g.Metrics {
					out = append(out, []string{string(seg), g.Group, g.WeightVariable, m.ID, m.Label})
				}
			}
			return out
		},
		text: func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "Metric groups for %s\n", seg); err != nil {
				return err
			}
			maxLabel := GetMaxLabelWidth(cfg, 1)
			table := tablewriter.NewWriter(w)
			defer func() { _ = table.Close() }()
			table.Header([]string{"Group", "Weight", "ID", "Metric"})
			table.Configure(func(c *tablewriter.Config) {
				c.Row.Alignment.Global = tw.AlignLeft
			})
			var data [][]string
			for _, g := range groups {
				for _, m := range g.Metrics {
					data = append(data, []string{g.Group, g.WeightVariable, m.ID, contract.TruncateLabel(m.Label, maxLabel)})
				}
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		},
	}.write(cfg)
}
