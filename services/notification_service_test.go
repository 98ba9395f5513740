package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string untouched", "hello", 140, "hello"},
		{"exact length untouched", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 3, "abc…"},
		{"multi-byte rune not split", strings.Repeat("a", 139) + "é", 140, strings.Repeat("a", 139) + "…"},
		{"cut inside a rune walks back", "aé", 2, "a…"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.n)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got), "truncated body must stay valid UTF-8")
		})
	}
}
