package utils

import (
	"fmt"
	"strings"
)

var (
	NullEthereumAddress    = "0000000000000000000000000000000000000000"
	NullEthereumAddressHex = fmt.Sprintf("0x%s", NullEthereumAddress)
)

func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

func IsNullAddress(a string) bool {
	return a == "" || AreAddressesEqual(a, NullEthereumAddressHex)
}

// ShortenHash keeps the first six and last four characters, e.g. 0x1234...abcd.
func ShortenHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:6] + "..." + h[len(h)-4:]
}
