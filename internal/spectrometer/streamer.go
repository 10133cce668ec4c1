package spectrometer

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/syncutil"
	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Streamer acquires spectra from a device at a fixed interval, the way a
// driver in free-running mode would. Every read publishes an EventSpectrum.
type Streamer struct {
	device   *Device
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       syncutil.Mutex
}

func NewStreamer(device *Device, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *Streamer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Streamer{
		device:   device,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Start startet die zyklische Erfassung
func (s *Streamer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.wg.Add(1)

	go s.loop(s.stopChan)

	s.logger.Info("Streamer started",
		zap.String("device", s.device.Name),
		zap.Duration("interval", s.interval))

	return nil
}

// Stop stoppt die Erfassung
func (s *Streamer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stopChan
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()

	s.logger.Info("Streamer stopped", zap.String("device", s.device.Name))
}

func (s *Streamer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Streamer) loop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.acquire()
		}
	}
}

func (s *Streamer) acquire() {
	lengths := s.device.SpectrumLengths()
	if len(lengths) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	s.device.Read(ctx, usb.BulkReadRequest{
		Endpoint: usb.EndpointSpectrum,
		Length:   slices.Max(lengths),
		Timeout:  s.interval,
	})
}
