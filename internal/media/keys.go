package media

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const keyRoot = "items"

// ObjectKey builds the store key for one upload attempt. Every attempt gets a
// fresh uploadID so a retried upload never overwrites a committed blob.
func ObjectKey(itemID, uploadID uuid.UUID, ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s/%s%s", keyRoot, itemID, uploadID, ext)
}

// ItemPrefix returns the key prefix shared by all blobs of an item.
func ItemPrefix(itemID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/", keyRoot, itemID)
}
