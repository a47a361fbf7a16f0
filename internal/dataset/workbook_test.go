package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkbookRoundTrip(t *testing.T) {
	in := NewTable("Date", "Entity", "Count")
	in.AppendRow("2024-01-02", "Acme", 3)
	in.AppendRow("2024-01-03", "Rival", 1)

	data, err := WriteWorkbook(in, "Combined Data")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, err := ReadWorkbook(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Entity", "Count"}, out.Columns)
	require.Equal(t, 2, out.NumRows())
	// Cells come back as display strings.
	assert.Equal(t, "Acme", out.Rows[0][1])
	assert.Equal(t, "3", out.Rows[0][2])
}

func TestReadWorkbookMalformed(t *testing.T) {
	_, err := ReadWorkbook([]byte("definitely not a zip archive"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestReadWorkbookHeaderOnly(t *testing.T) {
	in := NewTable("Date", "Entity")

	data, err := WriteWorkbook(in, "Sheet")
	require.NoError(t, err)

	out, err := ReadWorkbook(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Entity"}, out.Columns)
	assert.Zero(t, out.NumRows())
}
