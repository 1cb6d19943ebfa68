package detect

// maxResolveDepth caps recursive descent so adversarially deep
// documents stay cheap and cannot overflow the stack.
const maxResolveDepth = 32

// resolvePath reports whether the dot-path (pre-split into segments)
// resolves to a non-empty value in doc. Arrays match if any element
// satisfies the remaining path: breadth over exhaustive depth-search.
func resolvePath(doc any, segments []string) bool {
	return resolve(doc, segments, 0)
}

func resolve(node any, segments []string, depth int) bool {
	if depth > maxResolveDepth {
		return false
	}

	if len(segments) == 0 {
		return nonEmpty(node)
	}

	switch v := node.(type) {
	case map[string]any:
		child, ok := v[segments[0]]
		if !ok {
			return false
		}
		return resolve(child, segments[1:], depth+1)
	case []any:
		for _, elem := range v {
			if resolve(elem, segments, depth+1) {
				return true
			}
		}
		return false
	default:
		// Scalars cannot be descended into; the remaining path is dead.
		return false
	}
}

// nonEmpty reports whether a resolved leaf counts as populated.
// Empty strings, empty containers, and nulls do not.
func nonEmpty(node any) bool {
	switch v := node.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		// Numbers and booleans are populated values, including 0 and false.
		return true
	}
}
