package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fraudscore/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Time,V1,merchant,Amount,Class
0,-1.35,grocery,149.62,0
1,1.19,,2.69,0
2,,fuel,378.66,1
`

func TestReadCSV(t *testing.T) {
	reader := NewDataReader(DefaultReaderConfig())
	ds, err := reader.ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Time", "V1", "merchant", "Amount", "Class"}, ds.Columns())
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, dataset.KindNumeric, ds.ColumnKind("V1"))
	assert.Equal(t, dataset.KindCategorical, ds.ColumnKind("merchant"))

	v1, _ := ds.ColumnIndex("V1")
	assert.True(t, ds.Value(2, v1).IsMissing())
	merchant, _ := ds.ColumnIndex("merchant")
	assert.True(t, ds.Value(1, merchant).IsMissing())
}

func TestReadCSVMaxRows(t *testing.T) {
	cfg := DefaultReaderConfig()
	cfg.MaxRows = 2
	ds, err := NewDataReader(cfg).ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumRows())
}

func TestReadDropsIdentifierColumn(t *testing.T) {
	const withID = `id,amount,ID2,Class
7,10.5,a,0
8,99.0,b,1
`
	ds, err := NewDataReader(DefaultReaderConfig()).ReadCSV(strings.NewReader(withID))
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "ID2", "Class"}, ds.Columns())
	amount, _ := ds.ColumnIndex("amount")
	assert.Equal(t, 99.0, ds.Value(1, amount).Num)

	cfg := DefaultReaderConfig()
	cfg.DropColumns = nil
	ds, err = NewDataReader(cfg).ReadCSV(strings.NewReader(withID))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "ID2", "Class"}, ds.Columns())
}

func TestReadRejectsHeaderOnly(t *testing.T) {
	_, err := NewDataReader(DefaultReaderConfig()).ReadCSV(strings.NewReader("a,b\n"))
	assert.Error(t, err)
}

func TestRoundTripFiles(t *testing.T) {
	src, err := NewDataReader(DefaultReaderConfig()).ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	dir := t.TempDir()
	writer := NewDataWriter()
	reader := NewDataReader(DefaultReaderConfig())

	for _, name := range []string{"scored.csv", "scored.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, writer.Write(path, src))
			_, err := os.Stat(path)
			require.NoError(t, err)

			back, err := reader.Read(path)
			require.NoError(t, err)
			assert.Equal(t, src.Columns(), back.Columns())
			assert.Equal(t, src.NumRows(), back.NumRows())

			amount, _ := back.ColumnIndex("Amount")
			assert.InDelta(t, 378.66, back.Value(2, amount).Num, 1e-9)
		})
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err := NewDataReader(DefaultReaderConfig()).Read(path)
	assert.Error(t, err)
}
