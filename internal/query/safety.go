package query

import (
	"strings"

	"github.com/vinodismyname/datalens/config"
)

// Gate classifies SQL statements as read-only or mutating using a plain
// case-insensitive substring scan over a fixed keyword set. This is
// deliberately not a parser: a string literal or identifier containing a
// forbidden word is rejected too. Stricter tokenization would change
// observable behavior, so the imprecision is kept.
type Gate struct {
	keywords []string
}

// NewGate constructs a Gate with the given forbidden keywords. An empty
// list falls back to the config defaults.
func NewGate(keywords []string) *Gate {
	if len(keywords) == 0 {
		keywords = config.ForbiddenKeywords()
	}
	upper := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		upper = append(upper, strings.ToUpper(kw))
	}
	return &Gate{keywords: upper}
}

// IsSafe reports whether the statement contains none of the forbidden
// keywords.
func (g *Gate) IsSafe(sql string) bool {
	upper := strings.ToUpper(sql)
	for _, kw := range g.keywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}
