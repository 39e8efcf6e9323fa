package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_AreAddressesEqual(t *testing.T) {
	assert.True(t, AreAddressesEqual("0xE097A30Ba2c5737e0d9b73603e91c600DBf4a8Dc", "0xe097a30ba2c5737e0d9b73603e91c600dbf4a8dc"))
	assert.False(t, AreAddressesEqual("0xE097A30Ba2c5737e0d9b73603e91c600DBf4a8Dc", NullEthereumAddressHex))
}

func Test_IsNullAddress(t *testing.T) {
	assert.True(t, IsNullAddress(""))
	assert.True(t, IsNullAddress(NullEthereumAddressHex))
	assert.False(t, IsNullAddress("0xE097A30Ba2c5737e0d9b73603e91c600DBf4a8Dc"))
}

func Test_ShortenHash(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", ShortenHash("0x1234567890abcdef1234567890abcdef"))
	assert.Equal(t, "0x12", ShortenHash("0x12"))
}
