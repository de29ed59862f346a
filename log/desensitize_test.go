package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/phoneshop/log/desensitize"
)

func TestDesensitizeBuiltin(t *testing.T) {
	hook := desensitize.Default()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "phone number",
			input:    "khach hang 0912345678 dat hang",
			expected: "khach hang 091****678 dat hang",
		},
		{
			name:     "email address",
			input:    "gui mail toi user@example.com",
			expected: "gui mail toi u***r@example.com",
		},
		{
			name:     "password field",
			input:    `{"email":"a","password":"s3cr\"et"}`,
			expected: `{"email":"a","password":"******"}`,
		},
		{
			name:     "auth cookies",
			input:    `cookie="auth_token=eyJhbGciOi.x.y; refresh_token=abc"`,
			expected: `cookie="auth_token=******; refresh_token=******"`,
		},
		{
			name:     "no sensitive data",
			input:    "order 42 confirmed",
			expected: "order 42 confirmed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, hook.Desensitize(tc.input))
		})
	}
}

func TestDesensitizeRuleManagement(t *testing.T) {
	hook := desensitize.NewHook()
	require.NoError(t, hook.AddContentRule("sku", `SKU-\d+`, "SKU-****"))
	assert.Equal(t, []string{"sku"}, hook.Rules())

	assert.True(t, hook.SetEnabled("sku", false))
	assert.Equal(t, "SKU-123", hook.Desensitize("SKU-123"))

	assert.True(t, hook.SetEnabled("sku", true))
	assert.Equal(t, "SKU-****", hook.Desensitize("SKU-123"))

	assert.True(t, hook.RemoveRule("sku"))
	assert.False(t, hook.RemoveRule("sku"))
	assert.Equal(t, 0, hook.RuleCount())

	assert.Error(t, hook.AddContentRule("invalid", "[", "x"))
	assert.Error(t, hook.AddFieldRule("", "password", "x"))
}

func TestDesensitizeWriter(t *testing.T) {
	hook := desensitize.Default()

	var buf strings.Builder
	w := desensitize.NewWriter(&buf, hook)

	content := `{"password":"hunter2"}`
	n, err := w.Write([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, len(content), n)
	assert.Equal(t, `{"password":"******"}`, buf.String())
}

func TestLoggerWithDesensitize(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithDesensitize(desensitize.Default()))

	logger.Info().Str("password", "hunter2").Str("phone", "0987654321").Msg("login")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "0987654321")
	assert.Contains(t, out, "098****321")
}
