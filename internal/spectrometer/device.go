package spectrometer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/KevinKickass/VirtualSpectrometer/internal/eeprom"
	"github.com/KevinKickass/VirtualSpectrometer/internal/waveform"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	VendorWasatch        = 0x24AA
	ProductSiliconSensor = 0x1000

	DefaultPixelCount = 1024
)

// DefaultSpectrumLengths are the bulk-read sizes treated as spectrum requests.
var DefaultSpectrumLengths = []int{1024, 2048}

var (
	ErrNoResponse           = errors.New("no response available")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Identity is what the bus reports about a device. Bus and Address only show
// up in logs.
type Identity struct {
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Product      string `json:"product"`
	SerialNumber string `json:"serial_number"`
	Bus          int    `json:"bus"`
	Address      int    `json:"address"`
}

func DefaultIdentity() Identity {
	return Identity{
		VendorID:     VendorWasatch,
		ProductID:    ProductSiliconSensor,
		Product:      "Wasatch Photonics Virtual Hamamatsu Silicon",
		SerialNumber: "0x000000",
	}
}

type Config struct {
	Identity        Identity
	PixelCount      int
	SpectrumLengths []int
	Generator       waveform.Generator
	Record          eeprom.Record
}

type Device struct {
	ID       uuid.UUID
	Name     string
	identity Identity

	pixelCount      int
	spectrumLengths []int
	generator       waveform.Generator
	cursor          *eeprom.Cursor

	sink   EventSink
	logger *zap.Logger
}

type Option func(*Device)

// WithEventSink forwards device events (unhandled requests, pages, spectra).
func WithEventSink(sink EventSink) Option {
	return func(d *Device) {
		d.sink = sink
	}
}

func NewDevice(name string, cfg Config, logger *zap.Logger, opts ...Option) (*Device, error) {
	if cfg.Record == nil {
		return nil, fmt.Errorf("device %s: eeprom record is required", name)
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("device %s: waveform generator is required", name)
	}
	if cfg.PixelCount <= 0 {
		cfg.PixelCount = DefaultPixelCount
	}
	if len(cfg.SpectrumLengths) == 0 {
		cfg.SpectrumLengths = DefaultSpectrumLengths
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cursor, err := eeprom.NewCursor(cfg.Record)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", name, err)
	}

	d := &Device{
		ID:              uuid.New(),
		Name:            name,
		identity:        cfg.Identity,
		pixelCount:      cfg.PixelCount,
		spectrumLengths: slices.Clone(cfg.SpectrumLengths),
		generator:       cfg.Generator,
		cursor:          cursor,
		sink:            noopSink{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logger.With(
		zap.String("device", name),
		zap.String("serial_number", cfg.Identity.SerialNumber),
		zap.Int("bus", cfg.Identity.Bus),
		zap.Int("address", cfg.Identity.Address))

	return d, nil
}

func (d *Device) Identity() Identity {
	return d.identity
}

func (d *Device) PixelCount() int {
	return d.pixelCount
}

func (d *Device) SpectrumLengths() []int {
	return slices.Clone(d.spectrumLengths)
}

// EEPROMPosition returns the next page index and the total page count.
func (d *Device) EEPROMPosition() (int, int) {
	return d.cursor.Position(), d.cursor.PageCount()
}
