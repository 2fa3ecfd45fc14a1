package graphsink

import "time"

// The neo4j driver returns dynamically-typed query results as
// map[string]any (via Record.AsMap); these helpers convert the
// concrete driver types (string, int64, neo4j's own time.Time-backed
// temporal types, []any) into the plain Go types this package's
// query-row structs expose to callers.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	default:
		return time.Time{}
	}
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
