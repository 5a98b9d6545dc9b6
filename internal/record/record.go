// Package record defines the managed record type, its field-level
// validation rules, and the error taxonomy shared by the store, the
// importer, and the engine facade. It has no database or UI dependencies.
package record

import (
	"strings"
	"time"
)

// Record is one managed contact-like entity. The canonical copy lives in
// the store; anything handed to a UI is a disposable value copy.
type Record struct {
	ID        string    // immutable once assigned
	Name      string
	Phone     string    // normalized, e.g. "+1-555-123-4567"
	Email     string
	Username  string    // unique across the store when set
	Password  string    // bcrypt hash, never plaintext at rest
	Birthday  string    // "YYYY-MM-DD", empty when unknown
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields carries user-supplied field values for a create operation.
// Values may be raw input; Clean normalizes and validates them.
type Fields struct {
	Name     string
	Phone    string
	Email    string
	Username string
	Password string
	Birthday string
	City     string
}

// Patch carries a partial update. Nil means "leave unchanged"; a pointer
// to the empty string clears the field (where allowed).
type Patch struct {
	Name     *string
	Phone    *string
	Email    *string
	Username *string
	Password *string
	Birthday *string
	City     *string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil &&
		p.Username == nil && p.Password == nil && p.Birthday == nil && p.City == nil
}

// Fields returns the record's mutable fields, for pre-filling edit forms.
func (r Record) Fields() Fields {
	return Fields{
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		Birthday: r.Birthday,
		City:     r.City,
	}
}

// Apply merges a patch into the record's fields and returns the result.
// The receiver is not modified.
func (r Record) Apply(p Patch) Fields {
	f := r.Fields()
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Email != nil {
		f.Email = *p.Email
	}
	if p.Username != nil {
		f.Username = *p.Username
	}
	if p.Password != nil {
		f.Password = *p.Password
	}
	if p.Birthday != nil {
		f.Birthday = *p.Birthday
	}
	if p.City != nil {
		f.City = *p.City
	}
	return f
}

// Matches reports whether the record matches a substring query over
// name, phone, and email. Matching is case-insensitive; an empty query
// matches everything.
func (r Record) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Phone), q) ||
		strings.Contains(strings.ToLower(r.Email), q)
}
