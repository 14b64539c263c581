package openalex

import (
	"net/url"
	"strings"
)

// TopicQuery is the search phrase for a topic scoped to a country:
// the topic followed by the quoted country name.
func TopicQuery(topic, country string) string {
	return strings.TrimSpace(topic) + ` "` + strings.TrimSpace(country) + `"`
}

// CountryQuery is the quoted country name alone.
func CountryQuery(country string) string {
	return `"` + strings.TrimSpace(country) + `"`
}

// escapeComponent percent-encodes a query the way browsers encode a URI
// component, so spaces become %20 rather than '+'.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
