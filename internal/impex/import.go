// Package impex moves records in and out of tabular files: CSV import
// with per-row partial success, and CSV/XLSX export with a fixed column
// contract.
package impex

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"rolodex/internal/record"
)

// Column is a canonical export/import column name. The order of Columns
// is the documented export contract.
var Columns = []string{"name", "phone", "email", "username", "password", "birthday", "city"}

// RequiredColumns must be present in an import header.
var RequiredColumns = []string{"name", "phone", "email"}

// DefaultAliases maps lowercased header variants to canonical columns.
// Covers the legacy spreadsheet headers ("PHONE #", "EMAILS", ...) as
// well as the clean form.
var DefaultAliases = map[string]string{
	"name":       "name",
	"phone":      "phone",
	"phone #":    "phone",
	"phone#":     "phone",
	"email":      "email",
	"emails":     "email",
	"username":   "username",
	"usernames":  "username",
	"password":   "password",
	"passwords":  "password",
	"birthday":   "birthday",
	"birth date": "birthday",
	"city":       "city",
}

// MaxHeaderSearchRows is how many leading rows are scanned for the header.
var MaxHeaderSearchRows = 20

// contextCheckInterval is how often (in rows) cancellation is checked.
const contextCheckInterval = 100

// Creator is the slice of the record store an import needs.
type Creator interface {
	Create(ctx context.Context, f record.Fields) (record.Record, error)
}

// Progress reports how far an import has gotten.
type Progress struct {
	Path      string
	TotalRows int
	Row       int
	Imported  int
	Skipped   int
}

// Percent returns progress as 0-100.
func (p Progress) Percent() int {
	if p.TotalRows == 0 {
		return 0
	}
	return (p.Row * 100) / p.TotalRows
}

// Result summarizes an import. RowErrors lists every rejected row; a bad
// row never aborts the batch.
type Result struct {
	Path      string
	TotalRows int
	Imported  int
	Skipped   int
	RowErrors []record.RowError
	Duration  time.Duration
}

// Importer reads tabular files into the record store.
type Importer struct {
	store       Creator
	aliases     map[string]string
	maxFileSize int64
	onProgress  func(Progress)
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithAliases replaces the default header alias table.
func WithAliases(aliases map[string]string) ImporterOption {
	return func(im *Importer) { im.aliases = aliases }
}

// WithMaxFileSize caps the input file size in bytes. Zero means no cap.
func WithMaxFileSize(n int64) ImporterOption {
	return func(im *Importer) { im.maxFileSize = n }
}

// WithProgress registers a callback invoked periodically during import.
func WithProgress(fn func(Progress)) ImporterOption {
	return func(im *Importer) { im.onProgress = fn }
}

// NewImporter creates an Importer writing into the given store.
func NewImporter(store Creator, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:   store,
		aliases: DefaultAliases,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile reads a CSV file and inserts each valid row as a record.
// Row-level failures (bad fields, duplicates) are collected in the
// result; only file-level problems (unreadable, no header) return an
// error.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &record.IOError{Op: "import", Path: path, Err: err}
	}
	if im.maxFileSize > 0 && int64(len(data)) > im.maxFileSize {
		return nil, &record.IOError{Op: "import", Path: path,
			Err: fmt.Errorf("file exceeds %d byte limit", im.maxFileSize)}
	}
	return im.importData(ctx, path, data)
}

func (im *Importer) importData(ctx context.Context, path string, data []byte) (*Result, error) {
	start := time.Now()

	rows, err := parseCSV(sanitizeUTF8(data))
	if err != nil {
		return nil, &record.IOError{Op: "import", Path: path, Err: fmt.Errorf("parse csv: %w", err)}
	}
	if len(rows) == 0 {
		return nil, &record.IOError{Op: "import", Path: path, Err: fmt.Errorf("empty file")}
	}

	headerRow, colIndex, err := im.findHeader(rows)
	if err != nil {
		return nil, &record.IOError{Op: "import", Path: path, Err: err}
	}
	dataRows := rows[headerRow+1:]

	result := &Result{
		Path:      path,
		TotalRows: len(dataRows),
	}
	progress := Progress{Path: path, TotalRows: len(dataRows)}

	for i, row := range dataRows {
		lineNum := headerRow + i + 2 // 1-indexed, after the header

		if i%contextCheckInterval == 0 && ctx.Err() != nil {
			return result, ctx.Err()
		}

		if isEmptyRow(row) {
			result.TotalRows--
			progress.TotalRows--
			continue
		}

		fields := rowFields(row, colIndex)
		if _, err := im.store.Create(ctx, fields); err != nil {
			result.RowErrors = append(result.RowErrors, record.RowError{
				Line:   lineNum,
				Reason: rowFailureReason(err),
				Data:   row,
			})
			result.Skipped++
		} else {
			result.Imported++
		}

		progress.Row = i + 1
		progress.Imported = result.Imported
		progress.Skipped = result.Skipped
		if im.onProgress != nil && (i%contextCheckInterval == 0 || progress.Row == progress.TotalRows) {
			im.onProgress(progress)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// findHeader locates the header row within the first MaxHeaderSearchRows
// rows and resolves each required column through the alias table. Returns
// the header row index and a canonical-column -> cell-position map.
func (im *Importer) findHeader(rows [][]string) (int, map[string]int, error) {
	limit := MaxHeaderSearchRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		colIndex := im.indexHeader(rows[i])
		if hasRequiredColumns(colIndex) {
			return i, colIndex, nil
		}
	}
	return 0, nil, fmt.Errorf("header with columns %v not found in first %d rows",
		RequiredColumns, limit)
}

// indexHeader maps canonical column names to positions for one candidate
// header row.
func (im *Importer) indexHeader(row []string) map[string]int {
	colIndex := make(map[string]int)
	for pos, cell := range row {
		key := strings.ToLower(cleanCell(cell))
		canonical, ok := im.aliases[key]
		if !ok {
			continue
		}
		if _, dup := colIndex[canonical]; !dup {
			colIndex[canonical] = pos
		}
	}
	return colIndex
}

func hasRequiredColumns(colIndex map[string]int) bool {
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			return false
		}
	}
	return true
}

// rowFields pulls record fields out of a data row using the header map.
func rowFields(row []string, colIndex map[string]int) record.Fields {
	cell := func(col string) string {
		pos, ok := colIndex[col]
		if !ok || pos >= len(row) {
			return ""
		}
		return cleanCell(row[pos])
	}
	return record.Fields{
		Name:     cell("name"),
		Phone:    cell("phone"),
		Email:    cell("email"),
		Username: cell("username"),
		Password: cell("password"),
		Birthday: cell("birthday"),
		City:     cell("city"),
	}
}

// rowFailureReason flattens store errors into a one-line reason for the
// import summary.
func rowFailureReason(err error) string {
	switch {
	case record.IsValidation(err), record.IsDuplicate(err):
		return err.Error()
	default:
		return fmt.Sprintf("insert: %v", err)
	}
}

// cleanCell trims whitespace, a UTF-8 BOM, and Excel formula quoting
// (="value") from a cell.
func cleanCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// sanitizeUTF8 replaces invalid byte sequences so the CSV reader never
// chokes on exports from legacy tools.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
