package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Cursor points at the last row of a page ordered by (created_at DESC, id DESC).
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Keyset restricts query to rows after cursor and orders it newest first.
// createdCol and idCol must be trusted column names.
func Keyset(query *gorm.DB, createdCol, idCol string, cursor *Cursor) *gorm.DB {
	if cursor != nil {
		query = query.Where(
			fmt.Sprintf("((%[1]s < ?) OR (%[1]s = ? AND %[2]s < ?))", createdCol, idCol),
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	return query.Order(createdCol + " DESC").Order(idCol + " DESC")
}

// Trim cuts rows fetched with LimitWithBuffer down to the page size and
// returns the cursor of the last kept row when another page exists.
func Trim[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	normalized := NormalizeLimit(limit)
	if len(rows) <= normalized {
		return rows, nil
	}
	rows = rows[:normalized]
	next := key(rows[len(rows)-1])
	return rows, &next
}

// EncodeCursor builds an opaque, URL-safe cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. An empty
// value yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}
