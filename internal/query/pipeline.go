package query

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Documents encodes each item into its own JSON document.
func Documents[T any](items []T) ([]json.RawMessage, error) {
	docs := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, b)
	}
	return docs, nil
}

// Pipeline shapes a document list: filter, paginate, sort, select, always in
// that order. Filters maps the filter terms a collection accepts to the
// document path they match against; other terms are ignored.
type Pipeline struct {
	Filters map[string]string
}

// Run applies d to docs. Absent directives are no-ops.
func (p Pipeline) Run(docs []json.RawMessage, d Directives) []json.RawMessage {
	out := p.Filter(docs, d.Filters)
	out = Paginate(out, d.Skip, d.Limit)
	out = Sort(out, d.SortBy)
	return SelectAll(out, d.Select)
}

// Filter keeps documents whose value at each accepted filter path equals the
// requested value.
func (p Pipeline) Filter(docs []json.RawMessage, terms map[string]string) []json.RawMessage {
	type match struct{ path, value string }
	var matches []match
	for key, value := range terms {
		if path, ok := p.Filters[key]; ok {
			matches = append(matches, match{path, value})
		}
	}
	if len(matches) == 0 {
		return docs
	}

	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		keep := true
		for _, m := range matches {
			if gjson.GetBytes(doc, m.path).String() != m.value {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, doc)
		}
	}
	return out
}

// Paginate returns items[skip : skip+limit]. A zero limit runs to the end.
func Paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return items[len(items):]
	}
	end := len(items)
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	return items[skip:end]
}

// Sort applies each key as a full stable re-sort in the order given, so the
// last key has the highest priority and earlier keys only break its ties.
func Sort(docs []json.RawMessage, keys []SortKey) []json.RawMessage {
	if len(keys) == 0 || len(docs) < 2 {
		return docs
	}

	out := append([]json.RawMessage(nil), docs...)
	for _, key := range keys {
		values := make([]gjson.Result, len(out))
		for i, doc := range out {
			values[i] = gjson.GetBytes(doc, key.Field)
		}
		idx := make([]int, len(out))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			c := compare(values[idx[a]], values[idx[b]])
			if key.Descending {
				return c > 0
			}
			return c < 0
		})
		sorted := make([]json.RawMessage, len(out))
		for i, j := range idx {
			sorted[i] = out[j]
		}
		out = sorted
	}
	return out
}

// compare orders values naturally: numbers numerically, timestamps
// chronologically, other strings lexicographically, false before true.
// Missing values sort first; values of different kinds sort by kind.
func compare(a, b gjson.Result) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch a.Type {
	case gjson.Number:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case gjson.String:
		ta, errA := time.Parse(time.RFC3339Nano, a.Str)
		tb, errB := time.Parse(time.RFC3339Nano, b.Str)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		return strings.Compare(a.Str, b.Str)
	case gjson.True, gjson.False:
		return boolRank(a) - boolRank(b)
	case gjson.JSON:
		return strings.Compare(a.Raw, b.Raw)
	}
	return 0
}

func rank(r gjson.Result) int {
	if !r.Exists() {
		return 0
	}
	switch r.Type {
	case gjson.Null:
		return 0
	case gjson.False, gjson.True:
		return 1
	case gjson.Number:
		return 2
	case gjson.String:
		return 3
	default:
		return 4
	}
}

func boolRank(r gjson.Result) int {
	if r.Type == gjson.True {
		return 1
	}
	return 0
}
