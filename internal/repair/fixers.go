package repair

import (
	"regexp"
	"strings"
)

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-]*)(\s*:)`)
	trueRe          = regexp.MustCompile(`\b(True|TRUE)\b`)
	falseRe         = regexp.MustCompile(`\b(False|FALSE)\b`)
	nullRe          = regexp.MustCompile(`\b(None|NULL|Null|nil|undefined)\b`)
)

// StripTrailingCommas drops commas directly before a closing bracket.
func StripTrailingCommas(s string) string {
	return outsideStrings(s, func(seg string) string {
		return trailingCommaRe.ReplaceAllString(seg, "$1")
	})
}

// QuoteBareKeys wraps unquoted object keys in double quotes.
func QuoteBareKeys(s string) string {
	return outsideStrings(s, func(seg string) string {
		return bareKeyRe.ReplaceAllString(seg, `$1"$2"$3`)
	})
}

// CanonicalLiterals maps Python/JS spellings of true, false and null.
func CanonicalLiterals(s string) string {
	return outsideStrings(s, func(seg string) string {
		seg = trueRe.ReplaceAllString(seg, "true")
		seg = falseRe.ReplaceAllString(seg, "false")
		return nullRe.ReplaceAllString(seg, "null")
	})
}

// NormalizeQuotes rewrites single-quoted strings as double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func NormalizeQuotes(s string) string {
	if !strings.ContainsRune(s, '\'') {
		return s
	}
	var (
		sb       strings.Builder
		inDouble bool
		inSingle bool
		escaped  bool
	)
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case inDouble:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inDouble = false
			}
			sb.WriteRune(r)
		case inSingle:
			switch {
			case escaped:
				escaped = false
				if r != '\'' {
					sb.WriteRune('\\')
				}
				sb.WriteRune(r)
			case r == '\\':
				escaped = true
			case r == '\'':
				inSingle = false
				sb.WriteRune('"')
			case r == '"':
				sb.WriteString(`\"`)
			default:
				sb.WriteRune(r)
			}
		case r == '"':
			inDouble = true
			sb.WriteRune(r)
		case r == '\'':
			inSingle = true
			sb.WriteRune('"')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// outsideStrings applies fn to the stretches of s that are not inside
// double-quoted JSON strings.
func outsideStrings(s string, fn func(string) string) string {
	var (
		sb      strings.Builder
		segment strings.Builder
		inStr   bool
		escaped bool
	)
	sb.Grow(len(s))
	flush := func() {
		if segment.Len() > 0 {
			sb.WriteString(fn(segment.String()))
			segment.Reset()
		}
	}
	for _, r := range s {
		if inStr {
			sb.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inStr = false
			}
			continue
		}
		if r == '"' {
			flush()
			inStr = true
			sb.WriteRune(r)
			continue
		}
		segment.WriteRune(r)
	}
	flush()
	return sb.String()
}
