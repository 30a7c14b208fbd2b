package query

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Select projects doc down to fields. Dotted fields keep their nesting, so
// "content.text" yields {"content":{"text":...}}. Missing fields are left
// out, and selecting the same fields again returns the same document.
func Select(doc json.RawMessage, fields []string) json.RawMessage {
	if len(fields) == 0 {
		return doc
	}

	out := map[string]any{}
	for _, field := range fields {
		if !validField(field) {
			continue
		}
		r := gjson.GetBytes(doc, field)
		if !r.Exists() {
			continue
		}
		setPath(out, strings.Split(field, "."), json.RawMessage(r.Raw))
	}

	b, err := json.Marshal(out)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

// SelectAll applies Select to every document.
func SelectAll(docs []json.RawMessage, fields []string) []json.RawMessage {
	if len(fields) == 0 {
		return docs
	}
	out := make([]json.RawMessage, len(docs))
	for i, doc := range docs {
		out[i] = Select(doc, fields)
	}
	return out
}

// setPath stores value under parts. A whole field wins over its sub-paths in
// either order.
func setPath(dst map[string]any, parts []string, value json.RawMessage) {
	for _, part := range parts[:len(parts)-1] {
		switch next := dst[part].(type) {
		case json.RawMessage:
			return
		case map[string]any:
			dst = next
		default:
			m := map[string]any{}
			dst[part] = m
			dst = m
		}
	}
	dst[parts[len(parts)-1]] = value
}

// validField rejects gjson query syntax so fields are plain key paths.
func validField(field string) bool {
	if field == "" || strings.HasPrefix(field, ".") || strings.HasSuffix(field, ".") || strings.Contains(field, "..") {
		return false
	}
	return !strings.ContainsAny(field, `*?|#@\!=<>%{}[]"`)
}
