package waveform

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `Pixel,Wavenumber,Processed,Raw,Dark
0,100.5,10.7,1010.7,1000
1,101.5,20.2,1020.2,1000
2,102.5,30.9,1030.9,1000
`

func writeTable(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoadReferenceTable_ProcessedColumnInOrder(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeTable(t, fs, "/ref/spectrum.csv", sampleTable)

	table, err := LoadReferenceTable(fs, "/ref/spectrum.csv")

	require.NoError(t, err)
	assert.Equal(t, []float64{10.7, 20.2, 30.9}, table)
}

func TestLoadReferenceTable_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadReferenceTable(afero.NewMemMapFs(), "/ref/missing.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open reference table")
}

func TestLoadReferenceTable_HeaderOnly(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeTable(t, fs, "/ref/empty.csv", "Pixel,Wavenumber,Processed,Raw,Dark\n")

	_, err := LoadReferenceTable(fs, "/ref/empty.csv")

	require.ErrorIs(t, err, ErrEmptyTable)
}

func TestLoadReferenceTable_Malformed(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeTable(t, fs, "/ref/bad.csv", "Pixel,Wavenumber,Processed,Raw,Dark\n0,1.0,not-a-number,1,1\n")

	_, err := LoadReferenceTable(fs, "/ref/bad.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse reference table")
}

func TestTableCache_LoadsOnce(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeTable(t, fs, "/ref/spectrum.csv", sampleTable)
	cache := NewTableCache(fs)

	first, err := cache.Load("/ref/spectrum.csv")
	require.NoError(t, err)

	require.NoError(t, fs.Remove("/ref/spectrum.csv"))

	second, err := cache.Load("/ref/spectrum.csv")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
