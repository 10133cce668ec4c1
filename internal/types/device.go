package types

import (
	"github.com/google/uuid"
)

type DeviceProfileDefinition struct {
	DeviceProfile DeviceProfileInfo `json:"device_profile" yaml:"device_profile"`
	USB           USBConfig         `json:"usb" yaml:"usb"`
	Detector      DetectorConfig    `json:"detector" yaml:"detector"`
	EEPROM        EEPROMConfig      `json:"eeprom" yaml:"eeprom"`
	Waveform      *WaveformConfig   `json:"waveform,omitempty" yaml:"waveform,omitempty"`
}

type DeviceProfileInfo struct {
	ID          string `json:"id" yaml:"id"`
	Vendor      string `json:"vendor" yaml:"vendor"`
	Model       string `json:"model" yaml:"model"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
}

// USBConfig is the identity a device reports on the bus.
type USBConfig struct {
	VendorID     uint16 `json:"vendor_id" yaml:"vendor_id"`
	ProductID    uint16 `json:"product_id" yaml:"product_id"`
	Product      string `json:"product" yaml:"product"`
	SerialNumber string `json:"serial_number" yaml:"serial_number"`
	Bus          int    `json:"bus" yaml:"bus"`
	Address      int    `json:"address" yaml:"address"`
}

type DetectorConfig struct {
	PixelCount      int   `json:"pixel_count" yaml:"pixel_count"`
	SpectrumLengths []int `json:"spectrum_lengths,omitempty" yaml:"spectrum_lengths,omitempty"`
}

// EEPROMConfig holds the fields written into the virtual EEPROM. Zero values
// fall back to the built-in defaults.
type EEPROMConfig struct {
	Model                  string    `json:"model" yaml:"model"`
	SerialNumber           string    `json:"serial_number" yaml:"serial_number"`
	BaudRate               uint32    `json:"baud_rate" yaml:"baud_rate"`
	HasCooling             bool      `json:"has_cooling" yaml:"has_cooling"`
	HasBattery             bool      `json:"has_battery" yaml:"has_battery"`
	HasLaser               bool      `json:"has_laser" yaml:"has_laser"`
	ExcitationNM           uint16    `json:"excitation_nm" yaml:"excitation_nm"`
	SlitSizeUM             uint16    `json:"slit_size_um" yaml:"slit_size_um"`
	WavelengthCoeffs       []float32 `json:"wavelength_coeffs,omitempty" yaml:"wavelength_coeffs,omitempty"`
	DetectorName           string    `json:"detector_name" yaml:"detector_name"`
	ActivePixelsHorizontal uint16    `json:"active_pixels_horizontal" yaml:"active_pixels_horizontal"`
	ActivePixelsVertical   uint16    `json:"active_pixels_vertical" yaml:"active_pixels_vertical"`
	UserText               string    `json:"user_text" yaml:"user_text"`
}

// WaveformConfig selects and tunes the spectrum generator. It appears both in
// profiles and in the global configuration.
type WaveformConfig struct {
	Strategy       string       `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	NoiseAmplitude *float64     `json:"noise_amplitude,omitempty" yaml:"noise_amplitude,omitempty" mapstructure:"noise_amplitude"`
	Prefix         *int         `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	ReferenceTable string       `json:"reference_table,omitempty" yaml:"reference_table,omitempty" mapstructure:"reference_table"`
	Peaks          []PeakConfig `json:"peaks,omitempty" yaml:"peaks,omitempty" mapstructure:"peaks"`
	Seed           *uint64      `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

type PeakConfig struct {
	Center float64 `json:"center" yaml:"center" mapstructure:"center"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`
}

// Device Runtime Info
type DeviceInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Profile      string    `json:"profile"`
	VendorID     uint16    `json:"vendor_id"`
	ProductID    uint16    `json:"product_id"`
	Product      string    `json:"product"`
	SerialNumber string    `json:"serial_number"`
	Bus          int       `json:"bus"`
	Address      int       `json:"address"`
	PixelCount   int       `json:"pixel_count"`
	Streaming    bool      `json:"streaming"`
}
