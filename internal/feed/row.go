package feed

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy strips all markup from storefront HTML before export.
var htmlPolicy = bluemonday.StrictPolicy()

// Row is one canonical export object sent to the remote API. Attribute keys
// may hold one or many values; AddAttribute implements the merge rule.
type Row map[string]any

// AddAttribute merges a value under a key: absent keys start a single-element
// list, scalars are promoted to a two-element list, lists append only when
// the value is not already present.
func (r Row) AddAttribute(key, value string) {
	existing, ok := r[key]
	if !ok {
		r[key] = []string{value}
		return
	}
	switch current := existing.(type) {
	case string:
		if current == value {
			return
		}
		r[key] = []string{current, value}
	case []string:
		for _, v := range current {
			if v == value {
				return
			}
		}
		r[key] = append(current, value)
	}
}

// StripProtocol removes the http/https scheme from a URL, leaving the rest
// unchanged. The remote API is protocol-relative by contract.
func StripProtocol(url string) string {
	if strings.HasPrefix(url, "https:") {
		return strings.TrimPrefix(url, "https:")
	}
	if strings.HasPrefix(url, "http:") {
		return strings.TrimPrefix(url, "http:")
	}
	return url
}

// StripHTML removes all markup from a storefront description.
func StripHTML(html string) string {
	return strings.TrimSpace(htmlPolicy.Sanitize(html))
}

// SplitSearchTags parses the comma-separated search tags attribute.
func SplitSearchTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// imageWithFallback applies the image precedence chain: primary, per-entity
// override, store-configured default, secondary store default.
func imageWithFallback(primary, override, storeDefault, storeSecondary string) string {
	for _, candidate := range []string{primary, override, storeDefault, storeSecondary} {
		if candidate != "" {
			return StripProtocol(candidate)
		}
	}
	return ""
}

// rowsToPayload converts rows for the API client.
func rowsToPayload(rows []Row) []map[string]any {
	payload := make([]map[string]any, len(rows))
	for i, row := range rows {
		payload[i] = map[string]any(row)
	}
	return payload
}
