package store

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/trackview/internal/ir"
)

// marshalMeta converts run metadata to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so equal metadata stores identically.
func marshalMeta(meta map[string]string) (string, error) {
	m := make(map[string]any, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal meta: %w", err)
	}
	return string(data), nil
}

// unmarshalMeta parses metadata written by marshalMeta.
func unmarshalMeta(s string) (map[string]string, error) {
	meta := map[string]string{}
	if s == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return meta, nil
}

// MetaKeys returns the metadata keys in sorted order.
func MetaKeys(meta map[string]string) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
