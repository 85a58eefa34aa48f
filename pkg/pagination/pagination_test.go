package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 30, 15, 123456789, time.UTC), ID: uuid.New()}

	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)

	none, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []string{"%%%", "bm8tc2VwYXJhdG9y", "eHx5"} {
		_, err := ParseCursor(bad)
		require.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 0, 4)
	for i := 0; i < 4; i++ {
		rows = append(rows, Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()})
	}
	identity := func(c Cursor) Cursor { return c }

	page := Trim(rows, 3, identity)
	assert.Len(t, page.Items, 3)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, rows[2].ID, next.ID)

	last := Trim(rows[:2], 3, identity)
	assert.Len(t, last.Items, 2)
	assert.Empty(t, last.NextCursor)
}
