package util

import (
	"fmt"
	"unicode/utf8"
)

// MaxDisplayBodySize is the default number of body bytes shown (4KB).
const MaxDisplayBodySize = 4 * 1024

// TruncateBody cuts data to at most maxSize bytes without splitting a UTF-8
// sequence and notes how many bytes were dropped. If maxSize <= 0, uses
// MaxDisplayBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxDisplayBodySize
	}
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + fmt.Sprintf("...(%d bytes truncated)", len(data)-cut)
}
