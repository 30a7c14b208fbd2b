// Package query parses list directives from request query strings and
// applies them to in-memory document sequences.
package query

import (
	"strconv"
	"strings"
)

// directiveKeys are query keys with list-shaping meaning. Any other key is
// a filter term.
var directiveKeys = map[string]bool{
	"id":     true,
	"limit":  true,
	"select": true,
	"sortBy": true,
	"skip":   true,
	"where":  true,
	"lt":     true,
	"lte":    true,
	"equals": true,
	"gte":    true,
	"gt":     true,
}

// SortKey is one field.direction pair of a sortBy directive.
type SortKey struct {
	Field      string
	Descending bool
}

// Directives are the parsed list-shaping instructions of a request.
type Directives struct {
	IDs     []string
	Select  []string
	SortBy  []SortKey
	Skip    int
	Limit   int
	Filters map[string]string
}

// IsDirective reports whether key is reserved for list shaping.
func IsDirective(key string) bool {
	return directiveKeys[key]
}

// Parse splits raw query values into directives and filter terms. Malformed
// directive values are ignored rather than rejected.
func Parse(raw map[string]string) Directives {
	d := Directives{Filters: map[string]string{}}

	for key, value := range raw {
		if !IsDirective(key) {
			d.Filters[key] = value
			continue
		}
		switch key {
		case "id":
			d.IDs = splitList(value)
		case "select":
			d.Select = splitList(value)
		case "sortBy":
			d.SortBy = parseSortBy(value)
		case "skip":
			d.Skip = nonNegative(value)
		case "limit":
			d.Limit = nonNegative(value)
		}
	}

	return d
}

func parseSortBy(value string) []SortKey {
	var keys []SortKey
	for _, pair := range splitList(value) {
		i := strings.LastIndex(pair, ".")
		if i <= 0 {
			continue
		}
		field, dir := pair[:i], strings.ToLower(pair[i+1:])
		switch dir {
		case "ascending", "asc", "1":
			keys = append(keys, SortKey{Field: field})
		case "descending", "desc", "-1":
			keys = append(keys, SortKey{Field: field, Descending: true})
		}
	}
	return keys
}

func nonNegative(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
