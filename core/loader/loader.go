// Package loader reads one raw evaluation export per segment and decodes its
// categorical code columns into labels.
//
// A segment that cannot be read or decoded is treated as unavailable: Load
// reports why, and LoadOrEmpty turns any failure into an empty table so
// callers only ever have to handle "no rows".
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/scorecard/core/table"
	"github.com/huangsam/scorecard/internal/registry"
	"github.com/huangsam/scorecard/schema"
)

var (
	// ErrSourceUnavailable means the source file is missing, unreadable or not valid CSV.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMappingFailed means a categorical column could not be decoded.
	ErrMappingFailed = errors.New("category mapping failed")
)

// LoadError records which segment failed and at which step.
type LoadError struct {
	Segment schema.Segment
	Op      string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Segment, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CategoricalColumns returns the raw columns decoded for a segment, in decode order.
func CategoricalColumns(seg schema.Segment) []string {
	if seg == schema.BranchSegment {
		return []string{
			schema.BranchColumn,
			schema.NationalityColumn,
			schema.AppointmentColumn,
			schema.WaveColumn,
			schema.EvaluatorColumn,
		}
	}
	return []string{schema.WaveColumn, schema.EvaluatorColumn}
}

// SourcePath resolves the source file of a segment inside dataDir.
func SourcePath(dataDir string, seg schema.Segment, reg *registry.Registry) (string, error) {
	sc, err := reg.Segment(seg)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, sc.Source), nil
}

// Load reads the CSV at path and decodes the categorical columns of seg.
func Load(path string, seg schema.Segment, reg *registry.Registry) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Segment: seg, Op: "open", Err: fmt.Errorf("%w: %w", ErrSourceUnavailable, err)}
	}
	defer func() { _ = f.Close() }()

	tbl, err := ReadCSV(f)
	if err != nil {
		return nil, &LoadError{Segment: seg, Op: "read", Err: fmt.Errorf("%w: %w", ErrSourceUnavailable, err)}
	}

	for _, column := range CategoricalColumns(seg) {
		tbl, err = mapColumn(tbl, column, reg)
		if err != nil {
			return nil, &LoadError{Segment: seg, Op: "map " + column, Err: err}
		}
	}
	return tbl, nil
}

// LoadOrEmpty is Load with every failure collapsed to an empty table.
func LoadOrEmpty(path string, seg schema.Segment, reg *registry.Registry) *table.Table {
	tbl, err := Load(path, seg, reg)
	if err != nil {
		slog.Warn("segment unavailable", "segment", seg, "path", path, "error", err)
		return table.Empty()
	}
	slog.Debug("segment loaded", "segment", seg, "rows", tbl.Len())
	return tbl
}

// ReadCSV parses a headed CSV stream into a table. Blank cells are missing.
func ReadCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	tbl := table.New(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cells := make([]table.Cell, len(record))
		for i, v := range record {
			if strings.TrimSpace(v) == "" {
				cells[i] = table.Missing()
			} else {
				cells[i] = table.Value(v)
			}
		}
		if err := tbl.Append(cells); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func mapColumn(tbl *table.Table, column string, reg *registry.Registry) (*table.Table, error) {
	mapping, ok := reg.Mapping(column)
	if !ok {
		return nil, fmt.Errorf("%w: no mapping configured for %s", ErrMappingFailed, column)
	}
	out, err := tbl.MapColumn(column, func(c table.Cell) table.Cell {
		code, ok := parseCode(c)
		if !ok {
			return table.Missing()
		}
		label, ok := mapping.Lookup(code)
		if !ok {
			return table.Missing()
		}
		return table.Value(label)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMappingFailed, err)
	}
	return out, nil
}

// parseCode reads an integer code that may have been exported as a float ("2.0").
func parseCode(c table.Cell) (int, bool) {
	v, ok := c.Float()
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// AvailableMonths returns the distinct month labels in tbl ordered by month code.
// Labels the registry does not know are appended in first-appearance order.
func AvailableMonths(tbl *table.Table, reg *registry.Registry) []string {
	present := tbl.Unique(schema.WaveColumn)
	if len(present) == 0 {
		return nil
	}
	var months []string
	for _, label := range reg.MonthLabels() {
		if slices.Contains(present, label) {
			months = append(months, label)
		}
	}
	for _, label := range present {
		if !slices.Contains(months, label) {
			months = append(months, label)
		}
	}
	return months
}

// UniqueValues returns the distinct values of column, or fallback when the
// column is absent or has no values.
func UniqueValues(tbl *table.Table, column string, fallback []string) []string {
	if values := tbl.Unique(column); len(values) > 0 {
		return values
	}
	return slices.Clone(fallback)
}
