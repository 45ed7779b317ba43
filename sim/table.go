package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ResultColumns is the exact column order of the sweep result table.
// Downstream heatmap and tradeoff consumers key off these names; do not
// rename or reorder them.
var ResultColumns = []string{
	"segment_length", "smooth_window",
	"mean_bitrate", "sd_bitrate",
	"mean_stall", "sd_stall",
}

// TableWriter streams SweepCells as CSV rows.
type TableWriter struct {
	w *csv.Writer
}

// NewTableWriter writes the header row and returns a writer for the cells.
func NewTableWriter(w io.Writer) (*TableWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultColumns); err != nil {
		return nil, err
	}
	return &TableWriter{w: cw}, nil
}

// WriteCell appends one result row.
func (t *TableWriter) WriteCell(c SweepCell) error {
	return t.w.Write([]string{
		formatFloat(c.SegmentLength),
		strconv.Itoa(c.SmoothWindow),
		formatFloat(c.MeanBitrate),
		formatFloat(c.SDBitrate),
		formatFloat(c.MeanStall),
		formatFloat(c.SDStall),
	})
}

// Flush flushes buffered rows and reports any deferred write error.
func (t *TableWriter) Flush() error {
	t.w.Flush()
	return t.w.Error()
}

// WriteTable writes the full result table, one row per cell in the order
// given (callers pass the canonical sweep enumeration order).
func WriteTable(w io.Writer, cells []SweepCell) error {
	tw, err := NewTableWriter(w)
	if err != nil {
		return err
	}
	for _, c := range cells {
		if err := tw.WriteCell(c); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteTableFile writes the result table to path, creating or truncating it.
func WriteTableFile(path string, cells []SweepCell) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating result table %s: %w", path, err)
	}
	if err := WriteTable(f, cells); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing result table %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing result table %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
