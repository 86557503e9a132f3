package types

import "strings"

// Address identifies a wallet: a caller claiming tokens, a collection owner,
// or a withdrawal destination. The engine treats addresses as opaque,
// case-insensitive strings supplied by the host's execution environment
// and performs no authentication of its own.
type Address string

// ZeroAddress is the empty address. It never owns tokens and never passes
// an owner check.
const ZeroAddress Address = ""

// Addr normalizes a raw string into an Address (trimmed, lowercased).
func Addr(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the address as a plain string.
func (a Address) String() string { return string(a) }

// Equal compares two addresses case-insensitively.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}
