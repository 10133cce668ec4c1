package devices

import (
	"context"
	"testing"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type countingSink struct {
	events chan spectrometer.Event
}

func (s *countingSink) Publish(ev spectrometer.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func newTestManager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()

	m, err := NewManager(testFs(t), []string{"/profiles"}, types.WaveformConfig{}, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return m
}

func TestManager_LoadDevices(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	silicon, err := m.LoadDevice(types.ConnectedDevice{Name: "silicon", Profile: "wasatch-silicon"})
	require.NoError(t, err)
	xs, err := m.LoadDevice(types.ConnectedDevice{
		Name:    "xs",
		Profile: "wasatch-silicon",
		Overrides: types.DeviceOverrides{
			ProductID: ptr(uint16(0x4000)),
			Model:     ptr("Test XS"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.DeviceCount())
	assert.Equal(t, []*spectrometer.Device{silicon, xs}, m.ListDevices())

	got, ok := m.GetDevice(xs.ID)
	require.True(t, ok)
	assert.Same(t, xs, got)

	got, ok = m.GetDeviceByName("silicon")
	require.True(t, ok)
	assert.Same(t, silicon, got)

	_, ok = m.GetDevice(uuid.New())
	assert.False(t, ok)
}

func TestManager_LoadDeviceErrors(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)

	_, err := m.LoadDevice(types.ConnectedDevice{Name: "a", Profile: "nope"})
	assert.Error(t, err)

	_, err = m.LoadDevice(types.ConnectedDevice{Name: "a", Profile: "wasatch-silicon"})
	require.NoError(t, err)

	_, err = m.LoadDevice(types.ConnectedDevice{Name: "a", Profile: "wasatch-xs"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, 1, m.DeviceCount())
}

func TestManager_Lookup(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	dev, err := m.LoadDevice(types.ConnectedDevice{Name: "silicon", Profile: "wasatch-silicon"})
	require.NoError(t, err)

	byID, err := m.Lookup(dev.ID.String())
	require.NoError(t, err)
	assert.Same(t, dev, byID)

	byName, err := m.Lookup("silicon")
	require.NoError(t, err)
	assert.Same(t, dev, byName)

	_, err = m.Lookup(uuid.NewString())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestManager_FindByUSBID(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	_, err := m.LoadDevice(types.ConnectedDevice{Name: "silicon", Profile: "wasatch-silicon"})
	require.NoError(t, err)
	xs, err := m.LoadDevice(types.ConnectedDevice{Name: "xs", Profile: "wasatch-xs"})
	require.NoError(t, err)

	found := m.FindByUSBID(spectrometer.VendorWasatch, 0x4000)
	require.Len(t, found, 1)
	assert.Same(t, xs, found[0])

	assert.Len(t, m.FindByUSBID(spectrometer.VendorWasatch, spectrometer.ProductSiliconSensor), 1)
	assert.Empty(t, m.FindByUSBID(0x1234, 0x5678))
}

func TestManager_Info(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	dev, err := m.LoadDevice(types.ConnectedDevice{Name: "xs", Profile: "wasatch-xs"})
	require.NoError(t, err)

	info := m.Info(dev)
	assert.Equal(t, dev.ID, info.ID)
	assert.Equal(t, "wasatch-xs", info.Profile)
	assert.Equal(t, uint16(0x4000), info.ProductID)
	assert.Equal(t, "XS-0001", info.SerialNumber)
	assert.Equal(t, 1024, info.PixelCount)
	assert.False(t, info.Streaming)
}

func TestManager_Profiles(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	names, err := m.Profiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"wasatch-silicon", "wasatch-xs"}, names)

	profile, err := m.Profile("wasatch-xs")
	require.NoError(t, err)
	assert.Equal(t, "Test XS", profile.DeviceProfile.Model)
}

func TestManager_Streamers(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &countingSink{events: make(chan spectrometer.Event, 16)}
	clock := clockwork.NewFakeClock()
	m := newTestManager(t, WithEventSink(sink), WithClock(clock))

	dev, err := m.LoadDevice(types.ConnectedDevice{Name: "silicon", Profile: "wasatch-silicon"})
	require.NoError(t, err)

	assert.ErrorIs(t, m.StartStreamer(uuid.New(), time.Second), ErrDeviceNotFound)

	require.NoError(t, m.StartStreamer(dev.ID, time.Second))
	require.NoError(t, m.StartStreamer(dev.ID, time.Second))
	assert.True(t, m.IsStreaming(dev.ID))
	assert.True(t, m.Info(dev).Streaming)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	select {
	case ev := <-sink.events:
		assert.Equal(t, spectrometer.EventSpectrum, ev.Kind)
		assert.Equal(t, dev.ID, ev.DeviceID)
	case <-ctx.Done():
		t.Fatal("no spectrum published")
	}

	require.NoError(t, m.StopStreamer(dev.ID))
	assert.False(t, m.IsStreaming(dev.ID))
	require.NoError(t, m.StopStreamer(dev.ID))

	require.NoError(t, m.StartStreamer(dev.ID, time.Second))
	require.NoError(t, m.StopAll(context.Background()))
	assert.False(t, m.IsStreaming(dev.ID))
}
