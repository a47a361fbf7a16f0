package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "entity prefix before separator",
			filename: "Acme - Coverage Jan 2024.xlsx",
			want:     "Acme",
		},
		{
			name:     "no separator uses whole stem",
			filename: "Acme.xlsx",
			want:     "Acme",
		},
		{
			name:     "only first separator counts",
			filename: "Acme - Q1 - final.xlsx",
			want:     "Acme",
		},
		{
			name:     "hyphen without spaces is not a separator",
			filename: "Acme-Coverage.xlsx",
			want:     "Acme-Coverage",
		},
		{
			name:     "path components stripped",
			filename: "uploads/Acme - Jan.xlsx",
			want:     "Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntityFromFilename(tt.filename))
		})
	}
}

func TestWithEntity(t *testing.T) {
	t.Run("appends entity column", func(t *testing.T) {
		in := NewTable("Date", "Publication Name")
		in.AppendRow("2024-01-02", "P1")
		in.AppendRow("2024-01-03", "P2")

		out := in.WithEntity("Acme")

		require.Equal(t, []string{"Date", "Publication Name", "Entity"}, out.Columns)
		require.Equal(t, 2, out.NumRows())
		assert.Equal(t, "Acme", out.Rows[0][2])
		assert.Equal(t, "Acme", out.Rows[1][2])
	})

	t.Run("overwrites existing entity column in place", func(t *testing.T) {
		in := NewTable("Entity", "Date")
		in.AppendRow("Old", "2024-01-02")

		out := in.WithEntity("New")

		require.Equal(t, []string{"Entity", "Date"}, out.Columns)
		assert.Equal(t, "New", out.Rows[0][0])
	})

	t.Run("source table unchanged", func(t *testing.T) {
		in := NewTable("Date")
		in.AppendRow("2024-01-02")

		in.WithEntity("Acme")

		assert.Equal(t, []string{"Date"}, in.Columns)
		assert.Len(t, in.Rows[0], 1)
	})
}

func TestConcat(t *testing.T) {
	t.Run("preserves order and unions columns", func(t *testing.T) {
		a := NewTable("Date", "Entity")
		a.AppendRow("2024-01-02", "A")
		b := NewTable("Date", "Journalist", "Entity")
		b.AppendRow("2024-01-03", "J1", "B")

		out := Concat(a, b)

		require.Equal(t, []string{"Date", "Entity", "Journalist"}, out.Columns)
		require.Equal(t, 2, out.NumRows())
		assert.Equal(t, []any{"2024-01-02", "A", ""}, out.Rows[0])
		assert.Equal(t, []any{"2024-01-03", "B", "J1"}, out.Rows[1])
	})

	t.Run("row count is the sum of inputs", func(t *testing.T) {
		a := NewTable("X")
		a.AppendRow("1")
		a.AppendRow("2")
		b := NewTable("X")
		b.AppendRow("3")

		out := Concat(a, b)

		assert.Equal(t, 3, out.NumRows())
	})

	t.Run("no inputs yields empty table", func(t *testing.T) {
		out := Concat()
		assert.Empty(t, out.Columns)
		assert.Zero(t, out.NumRows())
	})
}

func TestExplodeColumn(t *testing.T) {
	t.Run("splits on comma without trimming", func(t *testing.T) {
		in := NewTable("Journalist", "Entity")
		in.AppendRow("J1, J2", "A")

		out, err := ExplodeColumn(in, "Journalist")

		require.NoError(t, err)
		require.Equal(t, 2, out.NumRows())
		assert.Equal(t, "J1", out.Rows[0][0])
		assert.Equal(t, " J2", out.Rows[1][0])
		assert.Equal(t, "A", out.Rows[0][1])
		assert.Equal(t, "A", out.Rows[1][1])
	})

	t.Run("row without comma passes through", func(t *testing.T) {
		in := NewTable("Journalist")
		in.AppendRow("J1")

		out, err := ExplodeColumn(in, "Journalist")

		require.NoError(t, err)
		require.Equal(t, 1, out.NumRows())
		assert.Equal(t, "J1", out.Rows[0][0])
	})

	t.Run("missing column fails", func(t *testing.T) {
		in := NewTable("Entity")

		_, err := ExplodeColumn(in, "Journalist")

		assert.True(t, errors.Is(err, ErrMissingColumn))
	})
}

func TestColumnIndex(t *testing.T) {
	in := NewTable("Date", "Entity")

	idx, err := in.ColumnIndex("Entity")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = in.ColumnIndex("Journalist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "Journalist")
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "abc", CellString("abc"))
	assert.Equal(t, "42", CellString(42))
	assert.Equal(t, "1.5", CellString(1.5))
}
