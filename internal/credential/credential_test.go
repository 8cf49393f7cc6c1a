package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bearer prefix", "Bearer abc123", "abc123", true},
		{"no prefix", "abc123", "abc123", true},
		{"blank", "  ", "", false},
		{"lowercase prefix", "bearer xyz", "xyz", true},
		{"upper prefix padded", "  BEARER   tok  ", "tok", true},
		{"prefix only", "Bearer ", "Bearer", true},
		{"prefix without separator", "Bearerabc", "Bearerabc", true},
		{"only strips once", "Bearer Bearer abc", "Bearer abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sanitize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeScheme(t *testing.T) {
	got, ok := SanitizeScheme("Token abc", "Token")
	assert.True(t, ok)
	assert.Equal(t, "abc", got)

	got, ok = SanitizeScheme("Bearer abc", "")
	assert.True(t, ok)
	assert.Equal(t, "Bearer abc", got)

	_, ok = SanitizeScheme("token   ", "Token")
	assert.True(t, ok, "trimmed text no longer carries the separator")
}

func TestAuthHeader(t *testing.T) {
	assert.Empty(t, AuthHeader("", DefaultHeader, DefaultScheme))
	assert.Empty(t, AuthHeader("abc", "  ", DefaultScheme))
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, AuthHeader("abc", DefaultHeader, DefaultScheme))
	assert.Equal(t, map[string]string{"X-API-Key": "abc"}, AuthHeader("abc", "X-API-Key", " "))
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, BearerHeader("abc"))
}

func TestAuthHeader_Idempotent(t *testing.T) {
	first := AuthHeader("abc", DefaultHeader, DefaultScheme)
	second := AuthHeader("abc", DefaultHeader, DefaultScheme)
	assert.Equal(t, first, second)

	first["Authorization"] = "mutated"
	assert.Equal(t, "Bearer abc", second["Authorization"])
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abcd"))
	assert.Equal(t, "sk************56", Mask("sk-secret-123456"))
}
