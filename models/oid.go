// Package models defines the core data structures shared across every layer
// of the SNMP agent. These types represent the canonical in-memory form of
// object identifiers, typed values, access control, and security
// principals; every other package depends on this package and nothing here
// depends on any other internal package.
package models

import (
	"strconv"
	"strings"
)

// OID is a finite, non-empty, ordered sequence of unsigned 32-bit arcs. It is
// the universal name for every object the agent manages. The zero value (nil
// slice) is not a valid OID.
type OID []uint32

// ParseOID parses a dotted-decimal string such as "1.3.6.1.2.1.1.5.0" into an
// OID. A leading dot is tolerated and stripped.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil, strconv.ErrSyntax
	}
	parts := strings.Split(s, ".")
	out := make(OID, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, err
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// String renders the OID in dotted-decimal form without a leading dot.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, arc := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

// Clone returns an independent copy of the OID.
func (o OID) Clone() OID {
	out := make(OID, len(o))
	copy(out, o)
	return out
}

// Compare returns -1, 0, or 1 as o is lexicographically less than, equal to,
// or greater than other, comparing arc by arc and treating a shorter OID as
// less than a longer one that agrees on every shared arc (the total ordering
// required by spec.md §3).
func (o OID) Compare(other OID) int {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if o[i] < other[i] {
			return -1
		}
		if o[i] > other[i] {
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	default:
		return 0
	}
}

// Equal reports whether o and other name the same sequence of arcs.
func (o OID) Equal(other OID) bool {
	return o.Compare(other) == 0
}

// HasPrefix reports whether prefix is a prefix of o (every arc of prefix
// equals the corresponding arc of o, in order).
func (o OID) HasPrefix(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i := range prefix {
		if o[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Suffix returns the arcs of o following prefix. It panics if prefix is not
// actually a prefix of o — callers must check HasPrefix first.
func (o OID) Suffix(prefix OID) OID {
	if !o.HasPrefix(prefix) {
		panic("models: Suffix called with a non-prefix")
	}
	return o[len(prefix):]
}

// Append returns a new OID consisting of o followed by arcs.
func (o OID) Append(arcs ...uint32) OID {
	out := make(OID, 0, len(o)+len(arcs))
	out = append(out, o...)
	out = append(out, arcs...)
	return out
}
