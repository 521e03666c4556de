// Package formula guards the boundary between user-supplied text and the
// gateway's formula query language. Handlers must route every filter or
// search expression through a Sanitizer before it is sent to the gateway;
// there is deliberately no code path that forwards raw text.
package formula

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxFormulaLength = 2000
	maxQueryLength   = 500
)

// fieldNameRe is the allow-listed identifier pattern for field names embedded
// in formulas. Matches the shape of names the gateway accepts for columns.
var fieldNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 _\-]{0,63}$`)

// allowedFunctions enumerates the formula functions that may appear in a
// user-supplied filter. Anything else is rejected.
var allowedFunctions = map[string]struct{}{
	"AND": {}, "OR": {}, "NOT": {}, "XOR": {}, "IF": {},
	"FIND": {}, "SEARCH": {}, "EXACT": {},
	"LOWER": {}, "UPPER": {}, "TRIM": {}, "LEN": {}, "CONCATENATE": {},
	"VALUES": {}, "BLANK": {}, "TRUE": {}, "FALSE": {},
	"ABS": {}, "ROUND": {}, "MIN": {}, "MAX": {}, "SUM": {},
	"TODAY": {}, "NOW": {}, "IS_BEFORE": {}, "IS_AFTER": {}, "IS_SAME": {},
	"DATETIME_DIFF": {}, "RECORD_ID": {}, "CREATED_TIME": {},
}

// InjectionError reports filter or search text that failed safety validation.
type InjectionError struct {
	Reason string
}

func (e *InjectionError) Error() string {
	return "formula injection blocked: " + e.Reason
}

func injectionf(format string, args ...any) error {
	return &InjectionError{Reason: fmt.Sprintf(format, args...)}
}

// Sanitizer validates free-text filter formulas and builds safe search
// expressions. The production implementation is Validator; handlers depend on
// the interface so tests can observe what was sanitized.
type Sanitizer interface {
	ValidateFilterFormula(raw string) (string, error)
	BuildSafeSearchFormula(query string, fields []string) (string, error)
}

// Validator is the production Sanitizer.
type Validator struct{}

// NewValidator constructs the production formula sanitizer.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateFilterFormula checks a user-supplied filter expression for
// disallowed constructs: control characters, unbalanced quoting or
// parentheses, and function names outside the allow-list. It returns the
// trimmed formula when safe.
func (v *Validator) ValidateFilterFormula(raw string) (string, error) {
	f := strings.TrimSpace(raw)
	if f == "" {
		return "", injectionf("empty formula")
	}
	if len(f) > maxFormulaLength {
		return "", injectionf("formula exceeds %d characters", maxFormulaLength)
	}
	if err := checkControlChars(f); err != nil {
		return "", err
	}
	if err := scanStructure(f); err != nil {
		return "", err
	}
	return f, nil
}

// BuildSafeSearchFormula composes a filter expression from free-text query
// and optional field names. The query is escaped and only ever embedded as a
// quoted literal; field names must match the allow-listed identifier pattern.
//
// With fields:     OR(FIND(LOWER('q'), LOWER({Field})) > 0, ...)
// Without fields:  SEARCH(LOWER('q'), LOWER(CONCATENATE(VALUES())))
func (v *Validator) BuildSafeSearchFormula(query string, fields []string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", injectionf("empty search query")
	}
	if len(q) > maxQueryLength {
		return "", injectionf("query exceeds %d characters", maxQueryLength)
	}
	if err := checkControlChars(q); err != nil {
		return "", err
	}
	escaped := escapeLiteral(q)

	if len(fields) == 0 {
		return fmt.Sprintf("SEARCH(LOWER('%s'), LOWER(CONCATENATE(VALUES())))", escaped), nil
	}

	conditions := make([]string, 0, len(fields))
	for _, field := range fields {
		if !fieldNameRe.MatchString(field) {
			return "", injectionf("invalid field name %q", field)
		}
		conditions = append(conditions, fmt.Sprintf("FIND(LOWER('%s'), LOWER({%s})) > 0", escaped, field))
	}
	return fmt.Sprintf("OR(%s)", strings.Join(conditions, ", ")), nil
}

// escapeLiteral makes text safe to embed inside a single-quoted formula
// string: backslashes first, then single quotes.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func checkControlChars(s string) error {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return injectionf("control character 0x%02x in input", r)
		}
	}
	return nil
}

// scanStructure walks the formula once, tracking quote and brace state, to
// verify balanced quoting and parentheses and to vet every function call
// against the allow-list.
func scanStructure(f string) error {
	var (
		depth    int
		inQuote  rune // active quote char, 0 when outside
		inBraces bool
		escaped  bool
		ident    []rune
	)

	checkIdent := func(next rune) error {
		if len(ident) == 0 {
			return nil
		}
		name := string(ident)
		ident = ident[:0]
		if next != '(' {
			return nil // bare identifier: a value or operand, not a call
		}
		if _, ok := allowedFunctions[strings.ToUpper(name)]; !ok {
			return injectionf("function %q is not allowed", name)
		}
		return nil
	}

	for _, r := range f {
		switch {
		case inQuote != 0:
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == inQuote {
				inQuote = 0
			}
		case inBraces:
			if r == '}' {
				inBraces = false
			} else if r == '{' {
				return injectionf("nested braces in field reference")
			}
		case r == '\'' || r == '"':
			if err := checkIdent(r); err != nil {
				return err
			}
			inQuote = r
		case r == '{':
			if err := checkIdent(r); err != nil {
				return err
			}
			inBraces = true
		case r == '}':
			return injectionf("unbalanced braces")
		case r == '(':
			if err := checkIdent(r); err != nil {
				return err
			}
			depth++
		case r == ')':
			if err := checkIdent(r); err != nil {
				return err
			}
			depth--
			if depth < 0 {
				return injectionf("unbalanced parentheses")
			}
		case unicode.IsLetter(r) || r == '_':
			ident = append(ident, r)
		case unicode.IsDigit(r) && len(ident) > 0:
			ident = append(ident, r)
		case unicode.IsSpace(r):
			// Identifier may still precede '(' after whitespace; keep it.
		default:
			if err := checkIdent(r); err != nil {
				return err
			}
		}
	}

	if inQuote != 0 {
		return injectionf("unbalanced quotes")
	}
	if inBraces {
		return injectionf("unbalanced braces")
	}
	if depth != 0 {
		return injectionf("unbalanced parentheses")
	}
	return checkIdent(0)
}
