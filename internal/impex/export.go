package impex

// export.go serializes the record set to CSV or XLSX. The column order
// and headers follow Columns; exports are lossless for every supported
// field, so an exported file can be re-imported to reproduce equivalent
// records (ids differ, values do not).
//
// Files are written to a temp sibling and renamed into place, so a
// failed export never leaves a half-written file behind.

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"rolodex/internal/record"
)

// Lister is the slice of the record store an export needs.
type Lister interface {
	All(ctx context.Context) ([]record.Record, error)
}

// ExportResult summarizes a completed export.
type ExportResult struct {
	Path     string
	Format   string // "csv" or "xlsx"
	Rows     int
	Duration time.Duration
}

// Exporter writes the record set to tabular files.
type Exporter struct {
	store Lister
}

// NewExporter creates an Exporter reading from the given store.
func NewExporter(store Lister) *Exporter {
	return &Exporter{store: store}
}

// Export writes all records to path, choosing the format from the file
// extension (.xlsx for a spreadsheet, anything else is CSV).
func (ex *Exporter) Export(ctx context.Context, path string) (*ExportResult, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ex.ExportXLSX(ctx, path)
	}
	return ex.ExportCSV(ctx, path)
}

// ExportCSV writes all records as CSV with the standard header row.
func (ex *Exporter) ExportCSV(ctx context.Context, path string) (*ExportResult, error) {
	start := time.Now()

	records, err := ex.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	err = writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(Columns); err != nil {
			return err
		}
		for _, rec := range records {
			if err := w.Write(exportRow(rec)); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
	if err != nil {
		return nil, &record.IOError{Op: "export", Path: path, Err: err}
	}

	return &ExportResult{
		Path:     path,
		Format:   "csv",
		Rows:     len(records),
		Duration: time.Since(start),
	}, nil
}

// ExportXLSX writes all records as a single-sheet spreadsheet.
func (ex *Exporter) ExportXLSX(ctx context.Context, path string) (*ExportResult, error) {
	start := time.Now()

	records, err := ex.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := setSheetRow(f, sheet, 1, Columns); err != nil {
		return nil, &record.IOError{Op: "export", Path: path, Err: err}
	}
	for i, rec := range records {
		if err := setSheetRow(f, sheet, i+2, exportRow(rec)); err != nil {
			return nil, &record.IOError{Op: "export", Path: path, Err: err}
		}
	}

	err = writeAtomic(path, func(out *os.File) error {
		return f.Write(out)
	})
	if err != nil {
		return nil, &record.IOError{Op: "export", Path: path, Err: err}
	}

	return &ExportResult{
		Path:     path,
		Format:   "xlsx",
		Rows:     len(records),
		Duration: time.Since(start),
	}, nil
}

// exportRow renders a record in the Columns order. The password column
// carries the stored hash verbatim so round trips are lossless.
func exportRow(rec record.Record) []string {
	return []string{
		rec.Name,
		rec.Phone,
		rec.Email,
		rec.Username,
		rec.Password,
		rec.Birthday,
		rec.City,
	}
}

func setSheetRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}

// writeAtomic writes via a temp file in the target directory and renames
// into place on success.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
