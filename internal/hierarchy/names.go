package hierarchy

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameMatcher reports whether two normalized group names denote the same group.
type NameMatcher func(candidate, existing string) bool

// DefaultMatchers is tried in order; the first match wins.
var DefaultMatchers = []NameMatcher{
	EqualNames,
	ContainedNames(10),
	AccentInsensitiveNames,
}

// NormalizeName lowercases, drops punctuation and collapses whitespace.
func NormalizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// EqualNames matches identical normalized names.
func EqualNames(candidate, existing string) bool {
	return candidate != "" && candidate == existing
}

// ContainedNames matches when one name contains the other and both are
// longer than minLen runes. Short names like "pipes" would otherwise
// swallow unrelated groups.
func ContainedNames(minLen int) NameMatcher {
	return func(candidate, existing string) bool {
		if len([]rune(candidate)) <= minLen || len([]rune(existing)) <= minLen {
			return false
		}
		return strings.Contains(candidate, existing) || strings.Contains(existing, candidate)
	}
}

// AccentInsensitiveNames matches names that differ only in diacritics,
// e.g. "Réseaux intérieurs" and "Reseaux interieurs".
func AccentInsensitiveNames(candidate, existing string) bool {
	return candidate != "" && foldAccents(candidate) == foldAccents(existing)
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

const maxNameLen = 300

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|` +
		`new\s+instructions)`,
)

var (
	errEmptyName     = errors.New("empty name")
	errNameTooLong   = errors.New("name too long")
	errInjectionName = errors.New("name looks like an instruction, not a line item")
)

// ValidateName rejects names the model should never have produced.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errEmptyName
	}
	if len([]rune(name)) > maxNameLen {
		return errNameTooLong
	}
	if injectionPattern.MatchString(name) {
		return errInjectionName
	}
	return nil
}
