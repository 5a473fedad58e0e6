package passlist

import (
	"net/mail"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Set holds normalized email addresses.
type Set map[string]struct{}

// NewSet normalizes and collects emails, dropping blanks.
func NewSet(emails ...string) Set {
	set := make(Set, len(emails))
	for _, email := range emails {
		set.Add(email)
	}
	return set
}

// Add inserts the normalized form of email. Blank values are ignored.
func (s Set) Add(email string) {
	if normalized := Normalize(email); normalized != "" {
		s[normalized] = struct{}{}
	}
}

// Contains reports whether email, after normalization, is in the set.
func (s Set) Contains(email string) bool {
	normalized := Normalize(email)
	if normalized == "" {
		return false
	}
	_, ok := s[normalized]
	return ok
}

// Len returns the number of distinct addresses.
func (s Set) Len() int { return len(s) }

// Emails returns the addresses in sorted order.
func (s Set) Emails() []string {
	out := make([]string, 0, len(s))
	for email := range s {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

// Normalize trims, NFKC-normalizes, and lowercases an email address.
func Normalize(email string) string {
	trimmed := strings.TrimSpace(norm.NFKC.String(email))
	if trimmed == "" {
		return ""
	}
	return cases.Lower(language.Und).String(trimmed)
}

// validAddress reports whether value is a bare address (no display name).
func validAddress(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Name == "" && strings.EqualFold(addr.Address, value)
}
