package correction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one compiled variant -> canonical replacement.
type Rule struct {
	Canonical string
	Variant   string
	// PreserveCase carries the case pattern of the matched text over to
	// the canonical form instead of writing it verbatim.
	PreserveCase bool

	pattern *regexp.Regexp
}

// Apply rewrites every whole-word, case-insensitive occurrence of the
// rule's variant in text.
func (r Rule) Apply(text string) string {
	if r.pattern == nil {
		return text
	}
	if !r.PreserveCase {
		return r.pattern.ReplaceAllLiteralString(text, r.Canonical)
	}
	return r.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return matchCase(match, r.Canonical)
	})
}

// Matches reports whether the rule would rewrite anything in text.
func (r Rule) Matches(text string) bool {
	return r.pattern != nil && r.pattern.MatchString(text)
}

// compileRules turns a dictionary into rules, preserving entry and variant
// order. Blank variants are skipped.
func compileRules(d Dictionary, preserveCase bool) []Rule {
	rules := make([]Rule, 0, len(d)*2)
	for _, e := range d {
		for _, v := range e.Variants {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			rules = append(rules, Rule{
				Canonical:    e.Canonical,
				Variant:      v,
				PreserveCase: preserveCase,
				pattern:      wholeWordPattern(v),
			})
		}
	}
	return rules
}

// wholeWordPattern matches literal text bounded on both sides. An edge that
// is a word character needs a word boundary; an edge like the "+" in "c++"
// needs a non-word neighbour (or the string edge) instead.
func wholeWordPattern(literal string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)`)
	b.WriteString(edge(literal[0]))
	b.WriteString(regexp.QuoteMeta(literal))
	b.WriteString(edge(literal[len(literal)-1]))
	return regexp.MustCompile(b.String())
}

func edge(c byte) string {
	if isWordByte(c) {
		return `\b`
	}
	return `\B`
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

// matchCase renders canonical with the case pattern of match: all caps stay
// all caps, a capitalized match capitalizes the canonical form, anything
// else uses the canonical casing.
func matchCase(match, canonical string) string {
	if match == strings.ToUpper(match) {
		return strings.ToUpper(canonical)
	}
	first, _ := utf8.DecodeRuneInString(match)
	if unicode.IsUpper(first) {
		return capitalize(canonical)
	}
	return canonical
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
