package sale

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for whitelist input that is not an address.
var ErrInvalidAddress = errors.New("invalid address")

// ParseAddress accepts hex of at most 20 bytes, with or without 0x.
// Shorter values are left-padded with zeros, matching how the node encodes
// an address argument.
func ParseAddress(s string) (common.Address, error) {
	h := strings.TrimSpace(s)
	if len(h) >= 2 && h[0] == '0' && (h[1] == 'x' || h[1] == 'X') {
		h = h[2:]
	}
	if h == "" || len(h) > 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for _, r := range h {
		if !isHexDigit(r) {
			return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	return common.HexToAddress(h), nil
}

// WhitelistAck is the acknowledgement shown once an address is whitelisted.
func WhitelistAck(addr string) string {
	return "KYC for " + addr + " is completed"
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
