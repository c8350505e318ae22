// Package canonical produces deterministic content hashes. Two values that
// are semantically equal after normalization always hash the same,
// independent of field insertion order or device of origin.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// volatileFields are dropped (recursively) before whole-dataset hashing so
// that timestamp churn does not register as a content change. Per-record
// checksums keep them: Checksum never strips.
var volatileFields = map[string]struct{}{
	"createdAt":    {},
	"updatedAt":    {},
	"modifiedAt":   {},
	"lastModified": {},
	"timestamp":    {},
}

// Hash returns the hex SHA-256 of the canonical form of v with volatile
// fields stripped. Intended for whole-dataset change detection.
// Non-object input hashes as the empty canonical form.
func Hash(v any) string {
	return digest(v, true)
}

// Checksum returns the hex SHA-256 of the canonical form of a record's
// content. Volatile fields are kept so the checksum is a pure function of
// the content; the value is stable across serialize/deserialize round trips.
func Checksum(content map[string]any) string {
	return digest(content, false)
}

func digest(v any, strip bool) string {
	n := normalize(v)
	switch n.(type) {
	case map[string]any, []any:
	default:
		n = map[string]any{}
	}
	b, err := json.Marshal(canonicalize(n, strip))
	if err != nil {
		b, _ = json.Marshal(map[string]any{})
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// normalize round-trips v through JSON so that typed structs, ints and
// floats all collapse to the same generic representation a deserialized
// snapshot would have.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// canonicalize sorts array elements by a derived key and drops volatile
// fields when strip is set. Object key ordering needs no work here:
// encoding/json marshals map keys in sorted order.
func canonicalize(v any, strip bool) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if strip {
				if _, vol := volatileFields[k]; vol {
					continue
				}
			}
			out[k] = canonicalize(val, strip)
		}
		return out
	case []any:
		items := make([]any, len(t))
		for i, el := range t {
			items[i] = canonicalize(el, strip)
		}
		sort.SliceStable(items, func(i, j int) bool {
			return elementKey(items[i]) < elementKey(items[j])
		})
		return items
	default:
		return v
	}
}

// elementKey orders array elements by their "id" field when present,
// falling back to the serialized form of the element.
func elementKey(v any) string {
	if m, ok := v.(map[string]any); ok {
		if id, ok := m["id"].(string); ok && id != "" {
			return "id:" + id
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
