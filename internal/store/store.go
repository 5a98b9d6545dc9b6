// Package store owns the canonical record table in an embedded SQLite
// database. All persistence goes through a Store instance; callers never
// see connections or transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"rolodex/internal/record"
)

const recordColumns = "id, name, phone, email, username, password, birthday, city, created_at, updated_at"

// Store provides create/read/update/delete and query access to records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists. The connection pool is capped at a single connection:
// this is a single-user tool and SQLite allows one writer anyway, so all
// access serializes here instead of in every caller.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create validates the fields, assigns an id, and persists a new record.
// Plaintext passwords are hashed before they touch disk. Returns
// ValidationError for rejected fields and DuplicateError when the
// username or email is already taken.
func (s *Store) Create(ctx context.Context, f record.Fields) (record.Record, error) {
	cleaned, issues := record.Clean(f)
	if len(issues) > 0 {
		return record.Record{}, &record.ValidationError{Issues: issues}
	}

	hashed, err := hashPassword(cleaned.Password)
	if err != nil {
		return record.Record{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := record.Record{
		ID:        uuid.NewString(),
		Name:      cleaned.Name,
		Phone:     cleaned.Phone,
		Email:     cleaned.Email,
		Username:  cleaned.Username,
		Password:  hashed,
		Birthday:  cleaned.Birthday,
		City:      cleaned.City,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Phone, rec.Email, rec.Username, rec.Password,
		rec.Birthday, rec.City, toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return record.Record{}, &record.DuplicateError{Field: field, Value: fieldValue(rec, field)}
		}
		return record.Record{}, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

// Get returns the record with the given id, or NotFoundError.
func (s *Store) Get(ctx context.Context, id string) (record.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, &record.NotFoundError{ID: id}
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Update merges a partial patch into an existing record. Only the fields
// the patch touches are re-validated; the id and created_at never change.
func (s *Store) Update(ctx context.Context, id string, p record.Patch) (record.Record, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return record.Record{}, err
	}
	if p.IsZero() {
		return existing, nil
	}

	cleaned, issues := record.CleanPatch(p)
	if len(issues) > 0 {
		return record.Record{}, &record.ValidationError{Issues: issues}
	}

	merged := existing.Apply(cleaned)
	hashed, err := hashPassword(merged.Password)
	if err != nil {
		return record.Record{}, fmt.Errorf("hash password: %w", err)
	}

	updated := existing
	updated.Name = merged.Name
	updated.Phone = merged.Phone
	updated.Email = merged.Email
	updated.Username = merged.Username
	updated.Password = hashed
	updated.Birthday = merged.Birthday
	updated.City = merged.City
	updated.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err = s.db.ExecContext(ctx,
		`UPDATE records
		 SET name = ?, phone = ?, email = ?, username = ?, password = ?,
		     birthday = ?, city = ?, updated_at = ?
		 WHERE id = ?`,
		updated.Name, updated.Phone, updated.Email, updated.Username,
		updated.Password, updated.Birthday, updated.City,
		toMillis(updated.UpdatedAt), id,
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return record.Record{}, &record.DuplicateError{Field: field, Value: fieldValue(updated, field)}
		}
		return record.Record{}, fmt.Errorf("update record: %w", err)
	}

	return updated, nil
}

// Delete removes the record with the given id. The caller is responsible
// for user confirmation; deletion is irreversible.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return &record.NotFoundError{ID: id}
	}
	return nil
}

// SearchResult contains one page of matching records.
type SearchResult struct {
	Records    []record.Record
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// Search returns records whose name, phone, or email contains the query,
// ordered by name then id so pagination is stable. An empty query matches
// everything. Offset-based: page starts at 1.
func (s *Store) Search(ctx context.Context, query string, page, pageSize int) (*SearchResult, error) {
	where, args := searchWhere(query)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records`+where+
			` ORDER BY name COLLATE NOCASE ASC, id ASC LIMIT ? OFFSET ?`,
		append(args, pageSize, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// All returns every record ordered by name then id. Used by export and
// dashboard aggregation.
func (s *Store) All(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// searchWhere builds the WHERE clause for a substring query. LIKE
// wildcards in the user's input are escaped so they match literally.
func searchWhere(query string) (string, []any) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", nil
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	pattern := "%" + escaped + "%"

	where := ` WHERE name LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`
	return where, []any{pattern, pattern, pattern}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (record.Record, error) {
	var rec record.Record
	var createdAt, updatedAt int64
	err := row.Scan(&rec.ID, &rec.Name, &rec.Phone, &rec.Email, &rec.Username,
		&rec.Password, &rec.Birthday, &rec.City, &createdAt, &updatedAt)
	if err != nil {
		return record.Record{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]record.Record, error) {
	var records []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// hashPassword bcrypt-hashes a plaintext password. Values that already
// look like a hash (re-imports, unchanged edits) pass through untouched.
func hashPassword(password string) (string, error) {
	if password == "" || record.IsPasswordHash(password) {
		return password, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// duplicateField maps a SQLite unique-constraint violation to the record
// field it occurred on.
func duplicateField(err error) (string, bool) {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	switch {
	case strings.Contains(msg, "records.username"):
		return "username", true
	case strings.Contains(msg, "records.email"):
		return "email", true
	case strings.Contains(msg, "records.id"):
		return "id", true
	default:
		return "record", true
	}
}

func fieldValue(rec record.Record, field string) string {
	switch field {
	case "username":
		return rec.Username
	case "email":
		return rec.Email
	case "id":
		return rec.ID
	default:
		return ""
	}
}

// toMillis normalizes timestamps to millisecond precision for storage.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// fromMillis restores a stored timestamp in UTC.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
