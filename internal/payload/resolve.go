// Package payload provides safe traversal of decoded webhook payloads.
//
// Payloads arrive as arbitrary external JSON and are decoded into the
// generic map[string]any / []any / string / float64 / bool / nil shapes
// produced by encoding/json. Resolution never panics and never returns
// an error: a missing path yields nil, the canonical not-found value.
// JSON null and "absent" are deliberately indistinguishable.
package payload

import "strings"

// Resolve walks root one dot-separated segment at a time and returns the
// value found, or nil if the path does not resolve.
//
// Each segment is an object-key lookup only. Arrays are never indexed by
// numeric segments; a segment landing on an array, a scalar, or nil stops
// resolution with nil.
func Resolve(root any, path string) any {
	current := root
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		value, ok := obj[segment]
		if !ok {
			return nil
		}
		current = value
	}
	return current
}
