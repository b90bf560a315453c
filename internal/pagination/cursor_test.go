package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 2, 14, 9, 30, 0, 123456789, time.UTC)
	encoded := EncodeCursor("6f1c0a54-3e52-4c4e-b0a4-5b1c2a7d9e01", ts)
	assert.NotContains(t, encoded, "=")

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "6f1c0a54-3e52-4c4e-b0a4-5b1c2a7d9e01", cursor.LastID)
	assert.True(t, ts.Equal(cursor.Timestamp))
}

func TestDecodeCursor(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	for _, bad := range []string{"%%%", "bm9waXBl", EncodeCursor("id", time.Now())[:4]} {
		_, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}

	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: DefaultLimit},
		{raw: "5", want: 5},
		{raw: "1000", want: MaxLimit},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLimit(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPage(t *testing.T) {
	type item struct {
		id string
		at time.Time
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []item{{"a", base}, {"b", base.Add(-time.Minute)}, {"c", base.Add(-2 * time.Minute)}}
	getID := func(i item) string { return i.id }
	getTS := func(i item) time.Time { return i.at }

	page := NewPage(items, 2, getID, getTS)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	cursor, err := DecodeCursor(page.Cursor)
	require.NoError(t, err)
	assert.Equal(t, "b", cursor.LastID)

	last := NewPage(items[:2], 2, getID, getTS)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.Cursor)

	empty := NewPage[item](nil, 2, getID, getTS)
	assert.NotNil(t, empty.Items)
}
