package waveform

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/VirtualSpectrometer/internal/syncutil"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
)

var ErrEmptyTable = errors.New("reference table has no rows")

// ReferenceRow is one line of a captured-spectrum export.
type ReferenceRow struct {
	Pixel      int     `csv:"Pixel"`
	Wavenumber float64 `csv:"Wavenumber"`
	Processed  float64 `csv:"Processed"`
	Raw        float64 `csv:"Raw"`
	Dark       float64 `csv:"Dark"`
}

// LoadReferenceTable reads the Processed column in row order.
func LoadReferenceTable(fs afero.Fs, path string) ([]float64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	var rows []*ReferenceRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse reference table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	processed := make([]float64, len(rows))
	for i, row := range rows {
		processed[i] = row.Processed
	}
	return processed, nil
}

// TableCache loads each reference table once per process.
type TableCache struct {
	fs     afero.Fs
	mu     syncutil.Mutex
	tables map[string][]float64
}

func NewTableCache(fs afero.Fs) *TableCache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TableCache{
		fs:     fs,
		tables: make(map[string][]float64),
	}
}

func (c *TableCache) Load(path string) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if table, ok := c.tables[path]; ok {
		return table, nil
	}

	table, err := LoadReferenceTable(c.fs, path)
	if err != nil {
		return nil, err
	}
	c.tables[path] = table
	return table, nil
}
