package spectrometer

import (
	"sync"
	"testing"

	"github.com/KevinKickass/VirtualSpectrometer/internal/eeprom"
	"github.com/KevinKickass/VirtualSpectrometer/internal/waveform"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) Count(kind EventKind) int {
	n := 0
	for _, ev := range s.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func numberedPages(n int) [][]byte {
	pages := make([][]byte, n)
	for i := range pages {
		page := make([]byte, eeprom.PageSize)
		for j := range page {
			page[j] = byte(i)
		}
		pages[i] = page
	}
	return pages
}

func testConfig(t *testing.T) Config {
	t.Helper()

	record, err := eeprom.NewStaticRecord(numberedPages(eeprom.PageCount))
	require.NoError(t, err)

	return Config{
		Identity:  DefaultIdentity(),
		Generator: waveform.NewAnalytic(waveform.DefaultPeaks(), 0, waveform.ZeroNoise),
		Record:    record,
	}
}

func newTestDevice(t *testing.T, mutate func(*Config), logger *zap.Logger, opts ...Option) *Device {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}
	dev, err := NewDevice("test", cfg, logger, opts...)
	require.NoError(t, err)
	return dev
}
