package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxCanonicalDepth bounds recursion so adversarially deep documents
// cannot blow the stack. Nodes below the cap serialize as a marker.
const maxCanonicalDepth = 64

// Canonicalize renders an already-deserialized JSON-like value into a
// byte-stable string: object keys sorted, numbers normalized, no
// insignificant whitespace. Structurally identical inputs always
// produce the same string, which is what makes cache keys stable.
func Canonicalize(doc any) string {
	var sb strings.Builder
	writeCanonical(&sb, doc, 0)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, node any, depth int) {
	if depth > maxCanonicalDepth {
		sb.WriteString(`"<depth-capped>"`)
		return
	}

	switch v := node.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		sb.WriteString(strconv.Quote(v))
	case float64:
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case float32:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case int:
		sb.WriteString(strconv.Itoa(v))
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			writeCanonical(sb, v[k], depth+1)
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, elem, depth+1)
		}
		sb.WriteByte(']')
	default:
		// Non-JSON value smuggled into the tree. Render via fmt so the
		// result is still deterministic for identical inputs.
		sb.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

// DocStats summarizes the structural shape of a document.
type DocStats struct {
	TextLength     int // length of the canonical serialization
	ParameterCount int // total object keys, recursively
	Relationships  int // nested containers (objects and arrays below the root)
}

// ComputeStats walks the document once and derives its structural stats.
func ComputeStats(doc any) DocStats {
	stats := DocStats{TextLength: len(Canonicalize(doc))}
	countNodes(doc, 0, &stats)
	return stats
}

func countNodes(node any, depth int, stats *DocStats) {
	if depth > maxCanonicalDepth {
		return
	}

	switch v := node.(type) {
	case map[string]any:
		if depth > 0 {
			stats.Relationships++
		}
		stats.ParameterCount += len(v)
		for _, child := range v {
			countNodes(child, depth+1, stats)
		}
	case []any:
		if depth > 0 {
			stats.Relationships++
		}
		for _, elem := range v {
			countNodes(elem, depth+1, stats)
		}
	}
}
