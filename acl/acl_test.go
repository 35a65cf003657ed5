package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilWhitelistAllowsEverything(t *testing.T) {
	var w *Whitelist
	assert.True(t, w.Allow("::1"))
	assert.True(t, w.Allow("127.0.0.1"))
}

func TestWhitelistRejectsOutsideRanges(t *testing.T) {
	w := New("127.0.0.0/8")
	assert.True(t, w.Allow("127.0.0.1"))
	assert.False(t, w.Allow("::1"))
}

func TestWhitelistRejectsEverythingWhenNoAddressMatches(t *testing.T) {
	w := New("127.0.0.0/8")
	for _, addr := range []string{"::1", "10.0.0.1", "8.8.8.8"} {
		assert.False(t, w.Allow(addr))
	}
}

func TestWhitelistRejectsUnparseableAddress(t *testing.T) {
	w := New("127.0.0.0/8")
	assert.False(t, w.Allow("not-an-ip"))
}
