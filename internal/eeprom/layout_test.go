package eeprom

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Geometry(t *testing.T) {
	t.Parallel()

	record := Build(DefaultFields())

	pages := record.Pages()
	require.Len(t, pages, PageCount)
	for _, page := range pages {
		assert.Len(t, page, PageSize)
	}
	assert.Equal(t, PageSize, record.PageSize())
}

func TestBuild_IdentityPage(t *testing.T) {
	t.Parallel()

	fields := DefaultFields()
	fields.Model = "Test XS"
	fields.SerialNumber = "WP-01234"
	fields.HasBattery = true
	fields.HasLaser = true
	fields.ExcitationNM = 830

	page := Build(fields).Pages()[0]

	assert.Equal(t, "Test XS", string(page[0:7]))
	assert.Equal(t, byte(0), page[7])
	assert.Equal(t, "WP-01234", string(page[16:24]))
	assert.Equal(t, byte(0), page[offHasCooling])
	assert.Equal(t, byte(1), page[offHasBattery])
	assert.Equal(t, byte(1), page[offHasLaser])
	assert.Equal(t, uint16(830), binary.LittleEndian.Uint16(page[offExcitationNM:]))
	assert.Equal(t, byte(DefaultFormat), page[offFormat])
}

func TestBuild_TruncatesLongStrings(t *testing.T) {
	t.Parallel()

	fields := DefaultFields()
	fields.Model = "A-VERY-LONG-MODEL-NAME-THAT-OVERFLOWS"

	page := Build(fields).Pages()[0]

	assert.Equal(t, "A-VERY-LONG-MODE", string(page[0:16]))
	assert.Equal(t, "0x000000", string(page[16:24]))
}

func TestBuild_CalibrationAndDetector(t *testing.T) {
	t.Parallel()

	fields := DefaultFields()
	fields.WavelengthCoeffs = [4]float32{780.5, 0.125, -1e-5, 0}

	pages := Build(fields).Pages()

	for i, want := range fields.WavelengthCoeffs {
		got := math.Float32frombits(binary.LittleEndian.Uint32(pages[1][4*i:]))
		assert.InDelta(t, want, got, 0)
	}
	assert.Equal(t, "S11511", string(pages[2][0:6]))
	assert.Equal(t, uint16(1024), binary.LittleEndian.Uint16(pages[2][offActivePixelsH:]))
}
