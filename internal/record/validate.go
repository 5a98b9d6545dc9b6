package record

// validate.go provides pure validation and normalization for record fields.
//
// Clean handles the messy reality of user-typed and CSV-sourced values:
//   - phone numbers with separators, parentheses, and country codes
//   - several birthday layouts, normalized to ISO form
//   - inconsistent city capitalization
//
// Clean never returns a Go error for bad input; rejection reasons come
// back as Issues so the caller can show them inline per field.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Phone digit count bounds after stripping separators.
const (
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// emailRegex checks the local@domain.tld shape. Intentionally loose:
// deliverability is not our problem, obvious typos are.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var nonDigitRegex = regexp.MustCompile(`\D`)

// birthdayLayouts are the accepted input forms, tried in order.
// The first match wins, mirroring how ambiguous forms like 01-02-2006
// resolve to month-first.
var birthdayLayouts = []string{
	"2006-01-02",
	"01-02-2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var titleCaser = cases.Title(language.English)

// Clean normalizes the fields and validates them. It returns the
// normalized copy plus any issues keyed by field name; the returned
// fields are only meaningful when issues is empty.
func Clean(f Fields) (Fields, Issues) {
	issues := Issues{}

	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		issues["name"] = "required"
	}

	f.Phone = strings.TrimSpace(f.Phone)
	if f.Phone == "" {
		issues["phone"] = "required"
	} else if normalized, ok := NormalizePhone(f.Phone); ok {
		f.Phone = normalized
	} else {
		issues["phone"] = "must contain 7 to 15 digits"
	}

	f.Email = strings.TrimSpace(f.Email)
	if f.Email == "" {
		issues["email"] = "required"
	} else if !ValidEmail(f.Email) {
		issues["email"] = "must look like local@domain.tld"
	}

	f.Username = strings.TrimSpace(f.Username)

	if f.Password != "" && !IsPasswordHash(f.Password) {
		if reason := CheckPassword(f.Password); reason != "" {
			issues["password"] = reason
		}
	}

	f.Birthday = strings.TrimSpace(f.Birthday)
	if f.Birthday != "" {
		if normalized, ok := NormalizeBirthday(f.Birthday); ok {
			f.Birthday = normalized
		} else {
			issues["birthday"] = "unrecognized date, use YYYY-MM-DD"
		}
	}

	f.City = NormalizeCity(f.City)

	return f, issues
}

// CleanPatch validates only the fields a patch touches, returning the
// normalized patch. Untouched fields are not re-validated.
func CleanPatch(p Patch) (Patch, Issues) {
	issues := Issues{}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			issues["name"] = "required"
		}
		p.Name = &name
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		if phone == "" {
			issues["phone"] = "required"
		} else if normalized, ok := NormalizePhone(phone); ok {
			phone = normalized
		} else {
			issues["phone"] = "must contain 7 to 15 digits"
		}
		p.Phone = &phone
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email == "" {
			issues["email"] = "required"
		} else if !ValidEmail(email) {
			issues["email"] = "must look like local@domain.tld"
		}
		p.Email = &email
	}
	if p.Username != nil {
		username := strings.TrimSpace(*p.Username)
		p.Username = &username
	}
	if p.Password != nil && *p.Password != "" && !IsPasswordHash(*p.Password) {
		if reason := CheckPassword(*p.Password); reason != "" {
			issues["password"] = reason
		}
	}
	if p.Birthday != nil {
		birthday := strings.TrimSpace(*p.Birthday)
		if birthday != "" {
			if normalized, ok := NormalizeBirthday(birthday); ok {
				birthday = normalized
			} else {
				issues["birthday"] = "unrecognized date, use YYYY-MM-DD"
			}
		}
		p.Birthday = &birthday
	}
	if p.City != nil {
		city := NormalizeCity(*p.City)
		p.City = &city
	}

	return p, issues
}

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// NormalizePhone strips separators and formats the number as
// +CC-XXX-XXX-XXXX when enough digits are present. Numbers with exactly
// 10 digits get the +1 country code; shorter numbers are kept as bare
// digits. Returns false when the digit count is out of range.
func NormalizePhone(s string) (string, bool) {
	digits := nonDigitRegex.ReplaceAllString(s, "")
	n := len(digits)
	if n < MinPhoneDigits || n > MaxPhoneDigits {
		return "", false
	}

	switch {
	case n == 10:
		return "+1-" + digits[:3] + "-" + digits[3:6] + "-" + digits[6:], true
	case n > 10:
		cc := n - 10
		return "+" + digits[:cc] + "-" + digits[cc:cc+3] + "-" + digits[cc+3:cc+6] + "-" + digits[cc+6:], true
	default:
		return digits, true
	}
}

// NormalizeBirthday parses any accepted layout and returns YYYY-MM-DD.
func NormalizeBirthday(s string) (string, bool) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// NormalizeCity trims and title-cases a city name ("new york" -> "New York").
func NormalizeCity(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// CheckPassword returns a rejection reason, or "" when the password is
// acceptable: at least MinPasswordLength characters spanning two or more
// character classes (lower, upper, digit, other).
func CheckPassword(s string) string {
	if len(s) < MinPasswordLength {
		return "must be at least " + strconv.Itoa(MinPasswordLength) + " characters"
	}

	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	classes := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			classes++
		}
	}
	if classes < 2 {
		return "must mix at least two of: lowercase, uppercase, digits, symbols"
	}
	return ""
}

// IsPasswordHash reports whether s already looks like a bcrypt hash, so
// hashed values survive an export/import round trip without re-hashing.
func IsPasswordHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// BirthYear extracts the four-digit year from a normalized birthday.
// Returns 0 when the value is empty or malformed.
func BirthYear(birthday string) int {
	if len(birthday) < 4 {
		return 0
	}
	year, err := strconv.Atoi(birthday[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
