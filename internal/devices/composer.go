package devices

import (
	"fmt"

	"github.com/KevinKickass/VirtualSpectrometer/internal/eeprom"
	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/KevinKickass/VirtualSpectrometer/internal/waveform"
	"go.uber.org/zap"
)

// Composer turns a profile plus per-unit overrides into a device configuration.
type Composer struct {
	tables   *waveform.TableCache
	defaults types.WaveformConfig
	logger   *zap.Logger
}

func NewComposer(tables *waveform.TableCache, defaults types.WaveformConfig, logger *zap.Logger) *Composer {
	return &Composer{
		tables:   tables,
		defaults: defaults,
		logger:   logger,
	}
}

// ComposeDevice builds the complete configuration for one connected unit.
func (c *Composer) ComposeDevice(profile *types.DeviceProfileDefinition, dev types.ConnectedDevice) (spectrometer.Config, error) {
	c.logger.Info("Composing device",
		zap.String("name", dev.Name),
		zap.String("profile", profile.DeviceProfile.ID))

	identity := composeIdentity(profile.USB, dev.Overrides)

	pixelCount := profile.Detector.PixelCount
	if dev.Overrides.PixelCount != nil {
		pixelCount = *dev.Overrides.PixelCount
	}
	if pixelCount <= 0 {
		pixelCount = spectrometer.DefaultPixelCount
	}

	fields := composeFields(profile.EEPROM, dev.Overrides, identity, pixelCount)

	generator, err := c.composeGenerator(mergeWaveform(c.defaults, profile.Waveform), pixelCount)
	if err != nil {
		return spectrometer.Config{}, fmt.Errorf("device %s: %w", dev.Name, err)
	}

	cfg := spectrometer.Config{
		Identity:        identity,
		PixelCount:      pixelCount,
		SpectrumLengths: profile.Detector.SpectrumLengths,
		Generator:       generator,
		Record:          eeprom.Build(fields),
	}

	c.logger.Info("Device composition complete",
		zap.String("name", dev.Name),
		zap.String("vid", fmt.Sprintf("%#04x", identity.VendorID)),
		zap.String("pid", fmt.Sprintf("%#04x", identity.ProductID)),
		zap.String("model", fields.Model),
		zap.Int("pixels", pixelCount))

	return cfg, nil
}

func composeIdentity(usb types.USBConfig, o types.DeviceOverrides) spectrometer.Identity {
	identity := spectrometer.DefaultIdentity()

	if usb.VendorID != 0 {
		identity.VendorID = usb.VendorID
	}
	if usb.ProductID != 0 {
		identity.ProductID = usb.ProductID
	}
	if usb.Product != "" {
		identity.Product = usb.Product
	}
	if usb.SerialNumber != "" {
		identity.SerialNumber = usb.SerialNumber
	}
	identity.Bus = usb.Bus
	identity.Address = usb.Address

	if o.ProductID != nil {
		identity.ProductID = *o.ProductID
	}
	if o.SerialNumber != nil {
		identity.SerialNumber = *o.SerialNumber
	}
	if o.Bus != nil {
		identity.Bus = *o.Bus
	}
	if o.Address != nil {
		identity.Address = *o.Address
	}

	return identity
}

func composeFields(e types.EEPROMConfig, o types.DeviceOverrides, identity spectrometer.Identity, pixelCount int) eeprom.Fields {
	f := eeprom.DefaultFields()
	f.SerialNumber = identity.SerialNumber
	f.ActivePixelsHorizontal = uint16(pixelCount)

	if e.Model != "" {
		f.Model = e.Model
	}
	if e.SerialNumber != "" {
		f.SerialNumber = e.SerialNumber
	}
	if e.BaudRate != 0 {
		f.BaudRate = e.BaudRate
	}
	f.HasCooling = e.HasCooling
	f.HasBattery = e.HasBattery
	f.HasLaser = e.HasLaser
	if e.ExcitationNM != 0 {
		f.ExcitationNM = e.ExcitationNM
	}
	if e.SlitSizeUM != 0 {
		f.SlitSizeUM = e.SlitSizeUM
	}
	if len(e.WavelengthCoeffs) > 0 {
		f.WavelengthCoeffs = [4]float32{}
		copy(f.WavelengthCoeffs[:], e.WavelengthCoeffs)
	}
	if e.DetectorName != "" {
		f.DetectorName = e.DetectorName
	}
	if e.ActivePixelsHorizontal != 0 {
		f.ActivePixelsHorizontal = e.ActivePixelsHorizontal
	}
	if e.ActivePixelsVertical != 0 {
		f.ActivePixelsVertical = e.ActivePixelsVertical
	}
	f.UserText = e.UserText

	if o.SerialNumber != nil {
		f.SerialNumber = *o.SerialNumber
	}
	if o.Model != nil {
		f.Model = *o.Model
	}
	if o.HasBattery != nil {
		f.HasBattery = *o.HasBattery
	}
	if o.HasLaser != nil {
		f.HasLaser = *o.HasLaser
	}
	if o.HasCooling != nil {
		f.HasCooling = *o.HasCooling
	}

	return f
}

// mergeWaveform layers the profile's waveform section over the global one.
func mergeWaveform(base types.WaveformConfig, profile *types.WaveformConfig) types.WaveformConfig {
	if profile == nil {
		return base
	}

	merged := base
	if profile.Strategy != "" {
		merged.Strategy = profile.Strategy
	}
	if profile.NoiseAmplitude != nil {
		merged.NoiseAmplitude = profile.NoiseAmplitude
	}
	if profile.Prefix != nil {
		merged.Prefix = profile.Prefix
	}
	if profile.ReferenceTable != "" {
		merged.ReferenceTable = profile.ReferenceTable
	}
	if len(profile.Peaks) > 0 {
		merged.Peaks = profile.Peaks
	}
	if profile.Seed != nil {
		merged.Seed = profile.Seed
	}
	return merged
}

func (c *Composer) composeGenerator(cfg types.WaveformConfig, pixelCount int) (waveform.Generator, error) {
	strategy, err := waveform.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	amplitude := float64(waveform.DefaultNoiseAmplitude)
	if cfg.NoiseAmplitude != nil {
		amplitude = *cfg.NoiseAmplitude
	}

	noise := waveform.DefaultNoise()
	if cfg.Seed != nil {
		noise = waveform.NewSeededNoise(*cfg.Seed)
	}

	switch strategy {
	case waveform.StrategyReference:
		if cfg.ReferenceTable == "" {
			return nil, fmt.Errorf("waveform strategy %s needs a reference_table", strategy)
		}
		table, err := c.tables.Load(cfg.ReferenceTable)
		if err != nil {
			return nil, err
		}
		prefix := waveform.DefaultPrefix
		if cfg.Prefix != nil {
			prefix = *cfg.Prefix
		}
		replay, err := waveform.NewReplay(prefix, table, amplitude, noise, pixelCount)
		if err != nil {
			return nil, err
		}
		return replay, nil

	default:
		peaks := waveform.DefaultPeaks()
		if len(cfg.Peaks) > 0 {
			peaks = make([]waveform.Peak, len(cfg.Peaks))
			for i, p := range cfg.Peaks {
				peaks[i] = waveform.Peak{Center: p.Center, Height: p.Height}
			}
		}
		return waveform.NewAnalytic(peaks, amplitude, noise), nil
	}
}
