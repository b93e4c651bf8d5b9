package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
)

var identifierUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Sanitize converts a file path or sheet name into a safe SQL table name.
// The directory and final extension are stripped, every character outside
// [A-Za-z0-9_] becomes its own underscore, and the result is lowercased.
// Total over any input; the empty string maps to itself.
func Sanitize(source string) string {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = identifierUnsafe.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}
