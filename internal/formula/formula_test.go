package formula

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilterFormulaAccepts(t *testing.T) {
	v := NewValidator()

	cases := []string{
		"{Status} = 'Done'",
		"AND({Status} = 'Done', {Priority} = 'High')",
		"OR(FIND('x', {Name}) > 0, {Count} > 5)",
		"NOT({Archived})",
		"IF({Count} > 3, TRUE(), FALSE())",
		"  {Status} = 'Done'  ",
	}
	for _, c := range cases {
		got, err := v.ValidateFilterFormula(c)
		require.NoError(t, err, "formula: %s", c)
		assert.Equal(t, strings.TrimSpace(c), got)
	}
}

func TestValidateFilterFormulaRejects(t *testing.T) {
	v := NewValidator()

	cases := map[string]string{
		"empty":               "",
		"unbalanced quote":    "{Status} = 'Done",
		"unbalanced paren":    "AND({A} = 1",
		"closing paren":       "{A} = 1)",
		"unbalanced brace":    "{Status = 'Done'",
		"stray closing brace": "Status} = 'Done'",
		"nested braces":       "{{Status}} = 'Done'",
		"disallowed function": "REGEX_MATCH({Name}, '.*')",
		"control character":   "{Status} = 'Done'\x00",
		"newline":             "{A} = 1\nDROP",
		"too long":            "{A} = '" + strings.Repeat("x", 2100) + "'",
	}
	for name, formula := range cases {
		_, err := v.ValidateFilterFormula(formula)
		require.Error(t, err, "case %s should be rejected", name)
		var injErr *InjectionError
		assert.ErrorAs(t, err, &injErr, "case %s", name)
	}
}

func TestValidateFilterFormulaQuotedContent(t *testing.T) {
	v := NewValidator()

	// Anything inside quotes is literal text, including parens and braces.
	_, err := v.ValidateFilterFormula(`{Note} = '((({unbalanced'`)
	require.NoError(t, err)

	// Escaped quote stays inside the literal.
	_, err = v.ValidateFilterFormula(`{Note} = 'it\'s fine'`)
	require.NoError(t, err)
}

func TestBuildSafeSearchFormulaWithFields(t *testing.T) {
	v := NewValidator()

	got, err := v.BuildSafeSearchFormula("widget", []string{"Name", "Notes"})
	require.NoError(t, err)
	assert.Equal(t, "OR(FIND(LOWER('widget'), LOWER({Name})) > 0, FIND(LOWER('widget'), LOWER({Notes})) > 0)", got)
}

func TestBuildSafeSearchFormulaAllFields(t *testing.T) {
	v := NewValidator()

	got, err := v.BuildSafeSearchFormula("widget", nil)
	require.NoError(t, err)
	assert.Equal(t, "SEARCH(LOWER('widget'), LOWER(CONCATENATE(VALUES())))", got)
}

func TestBuildSafeSearchFormulaEscapesQuery(t *testing.T) {
	v := NewValidator()

	got, err := v.BuildSafeSearchFormula(`it's a \ test`, []string{"Name"})
	require.NoError(t, err)
	assert.Equal(t, `OR(FIND(LOWER('it\'s a \\ test'), LOWER({Name})) > 0)`, got)

	// The generated formula must itself pass filter validation.
	_, err = v.ValidateFilterFormula(got)
	require.NoError(t, err)
}

func TestBuildSafeSearchFormulaRejects(t *testing.T) {
	v := NewValidator()

	_, err := v.BuildSafeSearchFormula("", nil)
	require.Error(t, err)

	_, err = v.BuildSafeSearchFormula(strings.Repeat("x", 501), nil)
	require.Error(t, err)

	_, err = v.BuildSafeSearchFormula("ok", []string{"bad}name"})
	require.Error(t, err)

	_, err = v.BuildSafeSearchFormula("ok", []string{"{injected}"})
	require.Error(t, err)

	_, err = v.BuildSafeSearchFormula("line\nbreak", nil)
	require.Error(t, err)
}
