package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/syncutil"
	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/KevinKickass/VirtualSpectrometer/internal/waveform"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDuplicateName  = errors.New("device name already registered")
)

type entry struct {
	device  *spectrometer.Device
	profile string
}

// Manager is the process-wide registry of virtual devices. Drivers discover
// devices through it in attach order.
type Manager struct {
	loader    *ProfileLoader
	composer  *Composer
	devices   map[uuid.UUID]*entry
	order     []uuid.UUID
	streamers map[uuid.UUID]*spectrometer.Streamer
	sink      spectrometer.EventSink
	clock     clockwork.Clock
	mu        syncutil.RWMutex
	logger    *zap.Logger
}

type ManagerOption func(*Manager)

// WithEventSink attaches sink to every device the manager creates.
func WithEventSink(sink spectrometer.EventSink) ManagerOption {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithClock sets the clock used by streamers.
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

func NewManager(fs afero.Fs, searchPaths []string, waveformDefaults types.WaveformConfig, logger *zap.Logger, opts ...ManagerOption) (*Manager, error) {
	loader, err := NewProfileLoader(fs, searchPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile loader: %w", err)
	}

	m := &Manager{
		loader:    loader,
		composer:  NewComposer(waveform.NewTableCache(fs), waveformDefaults, logger),
		devices:   make(map[uuid.UUID]*entry),
		streamers: make(map[uuid.UUID]*spectrometer.Streamer),
		clock:     clockwork.NewRealClock(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// LoadDevice creates a device from its profile and registers it.
func (m *Manager) LoadDevice(dev types.ConnectedDevice) (*spectrometer.Device, error) {
	// Load profile (lazy)
	profile, err := m.loader.Load(dev.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", dev.Profile, err)
	}

	cfg, err := m.composer.ComposeDevice(profile, dev)
	if err != nil {
		return nil, fmt.Errorf("failed to compose device: %w", err)
	}

	var opts []spectrometer.Option
	if m.sink != nil {
		opts = append(opts, spectrometer.WithEventSink(m.sink))
	}

	device, err := spectrometer.NewDevice(dev.Name, cfg, m.logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := m.Register(dev.Profile, device); err != nil {
		return nil, err
	}

	return device, nil
}

// Register adds an already constructed device. Names are unique.
func (m *Manager) Register(profile string, device *spectrometer.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.devices {
		if e.device.Name == device.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, device.Name)
		}
	}

	m.devices[device.ID] = &entry{device: device, profile: profile}
	m.order = append(m.order, device.ID)

	identity := device.Identity()
	m.logger.Info("Device attached",
		zap.String("name", device.Name),
		zap.String("profile", profile),
		zap.String("id", device.ID.String()),
		zap.String("vid", fmt.Sprintf("%#04x", identity.VendorID)),
		zap.String("pid", fmt.Sprintf("%#04x", identity.ProductID)))

	return nil
}

// StartStreamer starts free-running acquisition for a device
func (m *Manager) StartStreamer(deviceID uuid.UUID, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.devices[deviceID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if s, ok := m.streamers[deviceID]; ok && s.IsRunning() {
		return nil
	}

	streamer := spectrometer.NewStreamer(e.device, interval, m.clock, m.logger)
	if err := streamer.Start(); err != nil {
		return fmt.Errorf("failed to start streamer: %w", err)
	}
	m.streamers[deviceID] = streamer

	return nil
}

// StopStreamer stops acquisition for a device; stopping an idle device is a no-op.
func (m *Manager) StopStreamer(deviceID uuid.UUID) error {
	m.mu.Lock()
	if _, exists := m.devices[deviceID]; !exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	streamer, ok := m.streamers[deviceID]
	delete(m.streamers, deviceID)
	m.mu.Unlock()

	if ok {
		streamer.Stop()
	}
	return nil
}

func (m *Manager) IsStreaming(deviceID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.streamers[deviceID]
	return ok && s.IsRunning()
}

// GetDevice returns device by ID
func (m *Manager) GetDevice(deviceID uuid.UUID) (*spectrometer.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.devices[deviceID]
	if !exists {
		return nil, false
	}
	return e.device, true
}

// GetDeviceByName returns device by name
func (m *Manager) GetDeviceByName(name string) (*spectrometer.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.devices {
		if e.device.Name == name {
			return e.device, true
		}
	}

	return nil, false
}

// Lookup accepts either a device ID or a device name.
func (m *Manager) Lookup(idOrName string) (*spectrometer.Device, error) {
	if id, err := uuid.Parse(idOrName); err == nil {
		if device, ok := m.GetDevice(id); ok {
			return device, nil
		}
	}
	if device, ok := m.GetDeviceByName(idOrName); ok {
		return device, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, idOrName)
}

// FindByUSBID returns every device reporting the given vendor and product id,
// in attach order.
func (m *Manager) FindByUSBID(vendorID, productID uint16) []*spectrometer.Device {
	var found []*spectrometer.Device
	for _, device := range m.ListDevices() {
		identity := device.Identity()
		if identity.VendorID == vendorID && identity.ProductID == productID {
			found = append(found, device)
		}
	}
	return found
}

// ListDevices returns all devices in attach order
func (m *Manager) ListDevices() []*spectrometer.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	devices := make([]*spectrometer.Device, 0, len(m.order))
	for _, id := range m.order {
		devices = append(devices, m.devices[id].device)
	}

	return devices
}

// Info summarizes a registered device for discovery.
func (m *Manager) Info(device *spectrometer.Device) types.DeviceInfo {
	m.mu.RLock()
	var profile string
	if e, ok := m.devices[device.ID]; ok {
		profile = e.profile
	}
	m.mu.RUnlock()

	identity := device.Identity()
	return types.DeviceInfo{
		ID:           device.ID,
		Name:         device.Name,
		Profile:      profile,
		VendorID:     identity.VendorID,
		ProductID:    identity.ProductID,
		Product:      identity.Product,
		SerialNumber: identity.SerialNumber,
		Bus:          identity.Bus,
		Address:      identity.Address,
		PixelCount:   device.PixelCount(),
		Streaming:    m.IsStreaming(device.ID),
	}
}

// Profiles lists the profile names available on the search paths.
func (m *Manager) Profiles() ([]string, error) {
	return m.loader.List()
}

// Profile loads a profile by name.
func (m *Manager) Profile(name string) (*types.DeviceProfileDefinition, error) {
	return m.loader.Load(name)
}

// StopAll stops all streamers. Devices themselves hold no resources.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	streamers := make([]*spectrometer.Streamer, 0, len(m.streamers))
	for id, s := range m.streamers {
		streamers = append(streamers, s)
		delete(m.streamers, id)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, s := range streamers {
			s.Stop()
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping streamers: %w", ctx.Err())
	}
}

func (m *Manager) DeviceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
