// Package repair recovers a JSON object from free-form model output.
//
// Model responses arrive with reasoning preambles, markdown fences and small
// syntax slips. Extract walks a fixed cascade of candidate substrings, tries a
// strict parse, then a repair pass built from a chain of Fixers, and finally
// falls back to a balanced-brace scan keeping the largest object that parses.
package repair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Fixer rewrites candidate JSON text. Fixers must be safe to apply to input
// that is already valid.
type Fixer func(string) string

// DefaultFixers is the repair chain applied, in order, when a strict parse fails.
var DefaultFixers = []Fixer{
	NormalizeQuotes,
	StripTrailingCommas,
	QuoteBareKeys,
	CanonicalLiterals,
}

// Repairer extracts objects using a configurable repair chain.
type Repairer struct {
	Fixers []Fixer
}

// New returns a Repairer using DefaultFixers.
func New() *Repairer {
	return &Repairer{Fixers: DefaultFixers}
}

var defaultRepairer = New()

// Extract uses the default repair chain.
func Extract(raw string) (map[string]any, bool) {
	return defaultRepairer.Extract(raw)
}

var (
	reasoningBlockRe = regexp.MustCompile(`(?is)<(think|thinking|analysis|reasoning)>.*?</(think|thinking|analysis|reasoning)>`)
	jsonFenceRe      = regexp.MustCompile("(?is)```\\s*json[c5]?\\s*\\n?(.*?)```")
	anyFenceRe       = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*\\s*\\n?(.*?)```")
	closingTagRe     = regexp.MustCompile(`(?is)</(think|thinking|analysis|reasoning)>`)
)

// Extract returns the first JSON object recoverable from raw text, or false.
// A false result is a per-response failure, never a fatal condition.
func (r *Repairer) Extract(raw string) (map[string]any, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	text := StripReasoning(raw)
	for _, candidate := range r.candidates(raw, text) {
		if obj, ok := r.parse(candidate); ok {
			return obj, true
		}
	}
	return r.scanBalanced(text)
}

// StripReasoning removes <think>-style blocks entirely.
func StripReasoning(text string) string {
	return strings.TrimSpace(reasoningBlockRe.ReplaceAllString(text, ""))
}

// candidates lists substrings in priority order: json-labelled fences, any
// fence, text after a dangling closing reasoning tag, then the whole text.
func (r *Repairer) candidates(raw, text string) []string {
	var out []string
	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	for _, m := range anyFenceRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	if locs := closingTagRe.FindAllStringIndex(raw, -1); len(locs) > 0 {
		out = append(out, raw[locs[len(locs)-1][1]:])
	}
	out = append(out, text)

	seen := make(map[string]struct{}, len(out))
	uniq := out[:0]
	for _, c := range out {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		uniq = append(uniq, c)
	}
	return uniq
}

// parse tries a strict decode, then the repair chain.
func (r *Repairer) parse(candidate string) (map[string]any, bool) {
	if obj, ok := decodeObject(candidate); ok {
		return obj, true
	}
	fixed := candidate
	for _, fix := range r.Fixers {
		fixed = fix(fixed)
	}
	if fixed == candidate {
		return nil, false
	}
	return decodeObject(fixed)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// scanBalanced tries every top-level {...} span and keeps the largest one
// that parses. Quotes are tracked only inside braces so apostrophes in prose
// do not derail the depth count.
func (r *Repairer) scanBalanced(text string) (map[string]any, bool) {
	var (
		best     map[string]any
		bestSize int
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				span := text[start : i+1]
				if len(span) > bestSize {
					if obj, ok := r.parse(span); ok {
						best, bestSize = obj, len(span)
					}
				}
				start = -1
			}
		}
	}
	return best, best != nil
}
