package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	v         *validator.Validate
	tableName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: data file path must have a supported extension
		_ = v.RegisterValidation("datafile_ext", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			if s == "" {
				return false
			}
			return strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".csv") || strings.HasSuffix(s, ".tsv") || strings.HasSuffix(s, ".parquet")
		})
		// Custom: sanitized table identifier (lowercase letters, digits, underscore)
		_ = v.RegisterValidation("tablename", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			return tableName.MatchString(s)
		})
		// Custom: SQL statement must not be blank
		_ = v.RegisterValidation("sqltext", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
	return v
}

// Describe converts validator errors into a short human-readable string for
// MCP error payloads.
func Describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
