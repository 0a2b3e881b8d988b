package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
)

// report is one result in every shape it can be rendered as.
// A report without a parquet writer falls back to CSV for parquet output.
type report struct {
	value   any
	header  []string
	records func() [][]string
	parquet func(io.Writer) error
	text    func(io.Writer) error
}

// write renders r in the configured output mode to stdout or cfg.OutputFile.
func (r report) write(cfg *contract.Config) error {
	mode := cfg.Output
	var render func(io.Writer) error
	switch mode {
	case schema.JSONOut:
		render = func(w io.Writer) error { return writeJSON(w, r.value) }
	case schema.ParquetOut:
		if r.parquet != nil {
			render = r.parquet
			break
		}
		slog.Debug("no parquet layout, writing csv", "output", cfg.OutputFile)
		mode = schema.CSVOut
		fallthrough
	case schema.CSVOut:
		render = func(w io.Writer) error { return writeCSV(w, r.header, r.records()) }
	default:
		mode = schema.TextOut
		render = r.text
	}
	return emit(cfg.OutputFile, mode, render)
}

// emit runs render against the selected destination and reports file writes on stderr.
func emit(outputFile string, mode schema.OutputMode, render func(io.Writer) error) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file == os.Stdout {
		return render(file)
	}
	defer func() { _ = file.Close() }()

	if err := render(file); err != nil {
		return fmt.Errorf("write %s output: %w", mode, err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", mode, outputFile)
	return nil
}

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}
