package record

// errors.go defines the error taxonomy surfaced at the engine boundary.
//
// Every error here is recoverable: the caller shows a message and carries
// on. Validation failure is data (a field -> reason map) rather than an
// exceptional condition; RowError is collected per import row instead of
// aborting a batch.

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issues maps a field name to the reason its value was rejected.
type Issues map[string]string

// Fields returns the affected field names sorted ascending, for stable
// display and error text.
func (is Issues) Fields() []string {
	fields := make([]string, 0, len(is))
	for f := range is {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (is Issues) String() string {
	parts := make([]string, 0, len(is))
	for _, f := range is.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, is[f]))
	}
	return strings.Join(parts, "; ")
}

// ValidationError reports one or more rejected field values.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Issues.String()
}

// DuplicateError reports a uniqueness violation on a single field.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %q already exists", e.Field, e.Value)
}

// NotFoundError reports a lookup for an id that no longer exists.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %s not found", e.ID)
}

// RowError describes a single import row that was rejected. Collected in
// the import summary, never fatal to the batch.
type RowError struct {
	Line   int      // 1-indexed line number in the source file
	Reason string
	Data   []string // raw row values as read
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// IOError wraps a file failure that is fatal to a single import or
// export operation.
type IOError struct {
	Op   string // "import", "export"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsIO reports whether err is an IOError.
func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
