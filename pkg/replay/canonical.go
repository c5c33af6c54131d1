package replay

import (
	"encoding/json"
	"fmt"
)

// Key is the canonical identity of a recorded call: the method plus the
// canonical signature of its arguments. Two calls with the same Key are
// answered identically.
type Key struct {
	Method    string
	Signature string
}

// String formats the key for error messages and logs.
func (k Key) String() string {
	return fmt.Sprintf("(%s, %s)", k.Method, k.Signature)
}

// Canonical returns the canonical signature of an argument structure.
//
// The rule is a binding contract, not an implementation detail: the value is
// serialized to JSON, decoded into generic form, and re-serialized. Generic
// maps marshal with their keys in sorted order and all numbers pass through
// float64, so argument order, map key order, struct-vs-map representation,
// and integer-vs-float spelling never change a call's identity — in this
// process or any other.
func Canonical(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: encode: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("canonicalize: decode: %w", err)
	}
	if generic == nil {
		return "{}", nil
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("canonicalize: re-encode: %w", err)
	}
	return string(out), nil
}

// KeyFor computes the replay key for a call.
func KeyFor(method string, kwargs map[string]any) (Key, error) {
	sig, err := Canonical(kwargs)
	if err != nil {
		return Key{}, err
	}
	return Key{Method: method, Signature: sig}, nil
}
