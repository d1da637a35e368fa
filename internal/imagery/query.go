package imagery

import (
	"sort"
	"strings"
)

// Query identifies the visual being sought for one slide. Immutable once
// constructed.
type Query struct {
	Topic      string
	Keywords   []string
	SlideIndex int
}

// Signature returns the normalized cache key for the query: lowercased topic
// plus the deduplicated, sorted keyword set. Keyword order does not affect
// the signature.
func (q Query) Signature() string {
	parts := make([]string, 0, len(q.Keywords)+1)
	parts = append(parts, strings.ToLower(strings.TrimSpace(q.Topic)))

	seen := make(map[string]bool, len(q.Keywords))
	keywords := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return strings.Join(append(parts, keywords...), "|")
}

// SearchText renders the query as provider search text, keywords in their
// original order.
func (q Query) SearchText() string {
	parts := make([]string, 0, len(q.Keywords)+1)
	if topic := strings.TrimSpace(q.Topic); topic != "" {
		parts = append(parts, topic)
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}
