package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an account on the asset ledger. The zero (empty or
// all-zero) address stands for the mint/burn counterparty.
type Address []byte

func (a Address) IsZero() bool {
	for _, b := range a {
		if b != 0 {
			return false
		}
	}
	return true
}

func (a Address) Eq(b Address) bool {
	if a.IsZero() && b.IsZero() {
		return true
	}
	return bytes.Equal(a, b)
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a)
}

func (a Address) Key() string {
	return string(a)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(src []byte) error {
	res, err := parseHex(string(src))
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", src, err)
	}
	*a = res
	return nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}
