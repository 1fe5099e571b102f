package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		maxSize int
		want    string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello...(6 bytes truncated)"},
		{"keeps runes whole", "héllo", 2, "h...(5 bytes truncated)"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TruncateBody(tt.data, tt.maxSize))
		})
	}
}

func TestTruncateBodyDefault(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("a", MaxDisplayBodySize+1)
	got := TruncateBody(data, 0)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", MaxDisplayBodySize)))
	assert.True(t, strings.HasSuffix(got, "...(1 bytes truncated)"))
}
