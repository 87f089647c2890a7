package validators

import (
	"path"
	"strings"
	"unicode"
)

const maxFileNameLength = 255

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}

// SanitizeFileName strips directories and control characters from a client
// supplied file name. The extension survives truncation.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	ext := path.Ext(name)
	if len([]rune(ext)) >= maxFileNameLength {
		return SanitizeString(name, maxFileNameLength)
	}
	stem := SanitizeString(strings.TrimSuffix(name, ext), maxFileNameLength-len([]rune(ext)))
	return stem + ext
}
