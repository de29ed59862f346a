package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{":8080", "localhost:3000", "127.0.0.1:80", "[::1]:443", "api.sondv.vn:8080"}
	for _, addr := range valid {
		assert.True(t, ValidateAddress(addr), addr)
	}

	invalid := []string{"", "8080", ":0", ":65536", "localhost:http", "-bad.host:80", "a..b:80"}
	for _, addr := range invalid {
		assert.False(t, ValidateAddress(addr), addr)
	}
}
