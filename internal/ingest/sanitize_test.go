package ingest

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var sanitizedShape = regexp.MustCompile(`^[a-z0-9_]*$`)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"file path with extension", "/data/Sales Data 2024.xlsx", "sales_data_2024"},
		{"parentheses become underscores", "data (2024).xlsx", "data__2024_"},
		{"sheet name verbatim", "Products", "products"},
		{"punctuation", "Q1!", "q1_"},
		{"already safe", "sales", "sales"},
		{"empty", "", ""},
		{"unicode", "café.csv", "caf_"},
		{"consecutive separators not collapsed", "a--b.csv", "a__b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Sanitize(tc.source))
		})
	}
}

func TestSanitize_OutputShape(t *testing.T) {
	inputs := []string{
		"Sales Data 2024.xlsx",
		"weird!@#$%^&*()name.tsv",
		"ALLCAPS",
		"mixed Case With Spaces",
		"tab\tand\nnewline",
		"trailing.dots...",
	}
	for _, in := range inputs {
		got := Sanitize(in)
		require.Truef(t, sanitizedShape.MatchString(got), "Sanitize(%q) = %q", in, got)
	}
}

func TestNameSet_Dedupes(t *testing.T) {
	names := newNameSet()
	require.Equal(t, "q1_", names.claim("q1_"))
	require.Equal(t, "q1__2", names.claim("q1_"))
	require.Equal(t, "q1__3", names.claim("q1_"))
	require.Equal(t, "sales", names.claim("sales"))
}
