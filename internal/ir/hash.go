package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTrace    = "trackview/trace/v1"
	DomainSequence = "trackview/sequence/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalTrace converts effects to the canonical array form.
func CanonicalTrace(effects []Effect) []any {
	out := make([]any, len(effects))
	for i, e := range effects {
		out[i] = e.Canonical()
	}
	return out
}

// TraceHash computes the content hash of an ordered effect list.
// Two runs of the same sequence with the same frame schedule must hash equal.
func TraceHash(effects []Effect) (string, error) {
	canonical, err := MarshalCanonical(CanonicalTrace(effects))
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// SequenceHash computes the content hash of a serialized sequence document.
func SequenceHash(xml []byte) string {
	return hashWithDomain(DomainSequence, xml)
}

// MustTraceHash is like TraceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTraceHash(effects []Effect) string {
	h, err := TraceHash(effects)
	if err != nil {
		panic(err)
	}
	return h
}
