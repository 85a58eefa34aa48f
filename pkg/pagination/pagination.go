package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params holds keyset pagination inputs.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last row of the previous page, ordered by
// created_at DESC, id DESC.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Page is a slice of results plus the cursor for the next one, empty on the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit applies the default and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one extra row to detect a next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Trim cuts rows fetched with LimitWithBuffer down to the page and reports the
// cursor for the next page.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	items := rows[:limit]
	return Page[T]{Items: items, NextCursor: EncodeCursor(cursorOf(items[len(items)-1]))}
}

func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor returns nil for an empty value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	createdAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}
	return &Cursor{CreatedAt: t, ID: parsedID}, nil
}
