package domain

import "strconv"

// LLM responses and legacy export files use several historical names for the
// same logical field. These helpers resolve the first key present in a decoded
// JSON object instead of scattering per-field fallback chains.

// FirstValue returns the value for the first key present in data.
func FirstValue(data map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// FirstString resolves the first key and coerces it to a string.
func FirstString(data map[string]any, def string, keys ...string) string {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// FirstInt resolves the first key and coerces it to an int. JSON numbers
// decode as float64; numeric strings are also accepted.
func FirstInt(data map[string]any, def int, keys ...string) int {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// FirstFloat resolves the first key and coerces it to a float64.
func FirstFloat(data map[string]any, def float64, keys ...string) float64 {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

// FirstBool resolves the first key and coerces it to a bool. String forms
// ("true"/"false", "verdadero"/"falso") are accepted for legacy payloads.
func FirstBool(data map[string]any, def bool, keys ...string) bool {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch b {
		case "true", "verdadero", "V", "T":
			return true
		case "false", "falso", "F":
			return false
		}
	}
	return def
}

// FirstStringSlice resolves the first key holding a list and returns its
// string elements.
func FirstStringSlice(data map[string]any, keys ...string) []string {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FirstMap resolves the first key holding a nested object.
func FirstMap(data map[string]any, keys ...string) map[string]any {
	v, ok := FirstValue(data, keys...)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
