package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStringCapsRunes(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 0))
	assert.Equal(t, "çã", SanitizeString("çãõ", 2))
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":             "photo.jpg",
		"../../etc/passwd.png":  "passwd.png",
		`C:\Users\me\shot.webp`: "shot.webp",
		"bad\x00name.jpeg":      "badname.jpeg",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}

	long := strings.Repeat("a", 400) + ".jpg"
	got := SanitizeFileName(long)
	assert.Len(t, got, maxFileNameLength)
	assert.True(t, strings.HasSuffix(got, ".jpg"))
}
