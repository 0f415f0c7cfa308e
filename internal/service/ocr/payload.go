package ocr

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Payload is the schemaless JSON document returned by the extraction backend.
type Payload map[string]any

// Dig walks nested objects along the given keys. It returns nil when any
// step is missing or not an object.
func (p Payload) Dig(path ...string) any {
	var current any = map[string]any(p)
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return current
}

// Fields navigates to the field mapping under the given path. A missing or
// non-object node yields nil; partial backend responses must not abort the
// caller's flow.
func (p Payload) Fields(path ...string) map[string]any {
	fields, _ := p.Dig(path...).(map[string]any)
	return fields
}

// FirstScalar resolves a logical field against an ordered list of candidate
// keys and returns the first present, non-blank scalar as text.
//
// Each candidate node may carry the scalar directly under "value", or a list
// under "values" whose entries are either {value: scalar} objects or bare
// scalars. The first non-blank scalar across these shapes wins.
func FirstScalar(fields map[string]any, candidates ...string) (string, bool) {
	if fields == nil {
		return "", false
	}
	for _, key := range candidates {
		node, ok := fields[key]
		if !ok {
			continue
		}
		if text, ok := scalarFromNode(node); ok {
			return text, true
		}
	}
	return "", false
}

func scalarFromNode(node any) (string, bool) {
	obj, ok := node.(map[string]any)
	if !ok {
		return scalarText(node)
	}

	if value, ok := obj["value"]; ok {
		if text, ok := scalarText(value); ok {
			return text, true
		}
	}

	if values, ok := obj["values"].([]any); ok {
		for _, entry := range values {
			if inner, ok := entry.(map[string]any); ok {
				if text, ok := scalarText(inner["value"]); ok {
					return text, true
				}
				continue
			}
			if text, ok := scalarText(entry); ok {
				return text, true
			}
		}
	}

	return "", false
}

// scalarText converts a JSON scalar to its canonical text form. Blank
// strings and non-scalar shapes yield absent.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", false
		}
		return trimmed, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
