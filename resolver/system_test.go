package resolver

import "testing"

import "github.com/stretchr/testify/assert"

func TestTrimTrailingDot(t *testing.T) {
	assert.Equal(t, "example.com", trimTrailingDot("example.com."))
	assert.Equal(t, "example.com", trimTrailingDot("example.com"))
	assert.Equal(t, "", trimTrailingDot(""))
	assert.Equal(t, ".", trimTrailingDot("."))
}

func TestSystemSupportsSRV(t *testing.T) {
	s := &System{}
	assert.True(t, s.SupportsSRV())
}

func TestPortFromStringNumeric(t *testing.T) {
	p, err := portFromString("tcp", "8080")
	assert.NoError(t, err)
	assert.Equal(t, 8080, p)
}

func TestPortFromStringSymbolicHTTP(t *testing.T) {
	p, err := portFromString("tcp", "http")
	assert.NoError(t, err)
	assert.Equal(t, 80, p)
}
