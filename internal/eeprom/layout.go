package eeprom

import (
	"encoding/binary"
	"math"
)

// Image geometry: 8 pages of 64 bytes, one page per control read.
const (
	PageCount = 8
	PageSize  = 64

	DefaultFormat = 0x01
)

// Byte offsets. Page 0 carries identity and feature flags, page 1 the
// wavelength calibration, page 2 the detector, page 4 free user text.
const (
	offModel        = 0
	offSerialNumber = 16
	offBaudRate     = 32
	offHasCooling   = 36
	offHasBattery   = 37
	offHasLaser     = 38
	offExcitationNM = 39
	offSlitSizeUM   = 41
	offFormat       = 63

	offWavelengthCoeffs = 0

	offDetectorName  = 0
	offActivePixelsH = 16
	offActivePixelsV = 18

	pageIdentity    = 0
	pageCalibration = 1
	pageDetector    = 2
	pageUserText    = 4

	stringFieldSize = 16
)

// Fields describes the unit an EEPROM image is generated for.
type Fields struct {
	Model                  string     `json:"model" mapstructure:"model"`
	SerialNumber           string     `json:"serial_number" mapstructure:"serial_number"`
	BaudRate               uint32     `json:"baud_rate" mapstructure:"baud_rate"`
	HasCooling             bool       `json:"has_cooling" mapstructure:"has_cooling"`
	HasBattery             bool       `json:"has_battery" mapstructure:"has_battery"`
	HasLaser               bool       `json:"has_laser" mapstructure:"has_laser"`
	ExcitationNM           uint16     `json:"excitation_nm" mapstructure:"excitation_nm"`
	SlitSizeUM             uint16     `json:"slit_size_um" mapstructure:"slit_size_um"`
	WavelengthCoeffs       [4]float32 `json:"wavelength_coeffs" mapstructure:"wavelength_coeffs"`
	DetectorName           string     `json:"detector_name" mapstructure:"detector_name"`
	ActivePixelsHorizontal uint16     `json:"active_pixels_horizontal" mapstructure:"active_pixels_horizontal"`
	ActivePixelsVertical   uint16     `json:"active_pixels_vertical" mapstructure:"active_pixels_vertical"`
	UserText               string     `json:"user_text" mapstructure:"user_text"`
	Format                 uint8      `json:"format" mapstructure:"format"`
}

// DefaultFields matches an unconfigured silicon unit.
func DefaultFields() Fields {
	return Fields{
		Model:                  "WP-VIRTUAL",
		SerialNumber:           "0x000000",
		BaudRate:               0,
		ExcitationNM:           785,
		SlitSizeUM:             50,
		WavelengthCoeffs:       [4]float32{800, 0.25, 0, 0},
		DetectorName:           "S11511",
		ActivePixelsHorizontal: 1024,
		ActivePixelsVertical:   64,
		Format:                 DefaultFormat,
	}
}

// Build serializes fields into a fixed PageCount x PageSize image.
func Build(f Fields) *StaticRecord {
	pages := make([][]byte, PageCount)
	for i := range pages {
		pages[i] = make([]byte, PageSize)
	}

	id := pages[pageIdentity]
	putString(id[offModel:offModel+stringFieldSize], f.Model)
	putString(id[offSerialNumber:offSerialNumber+stringFieldSize], f.SerialNumber)
	binary.LittleEndian.PutUint32(id[offBaudRate:], f.BaudRate)
	id[offHasCooling] = boolByte(f.HasCooling)
	id[offHasBattery] = boolByte(f.HasBattery)
	id[offHasLaser] = boolByte(f.HasLaser)
	binary.LittleEndian.PutUint16(id[offExcitationNM:], f.ExcitationNM)
	binary.LittleEndian.PutUint16(id[offSlitSizeUM:], f.SlitSizeUM)
	id[offFormat] = f.Format

	cal := pages[pageCalibration]
	for i, c := range f.WavelengthCoeffs {
		binary.LittleEndian.PutUint32(cal[offWavelengthCoeffs+4*i:], math.Float32bits(c))
	}

	det := pages[pageDetector]
	putString(det[offDetectorName:offDetectorName+stringFieldSize], f.DetectorName)
	binary.LittleEndian.PutUint16(det[offActivePixelsH:], f.ActivePixelsHorizontal)
	binary.LittleEndian.PutUint16(det[offActivePixelsV:], f.ActivePixelsVertical)

	putString(pages[pageUserText], f.UserText)

	return &StaticRecord{pages: pages}
}

// putString copies s into dst, truncating and zero-padding.
func putString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
