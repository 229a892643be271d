package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether s is a 20-byte hex address (with or without 0x).
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeAddress validates s and returns its EIP-55 checksummed form so that
// the same account always compares equal regardless of input casing.
func NormalizeAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", InvalidParameter("invalid address %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return a == b
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
