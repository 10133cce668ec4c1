package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KevinKickass/VirtualSpectrometer/internal/api/rest"
	"github.com/KevinKickass/VirtualSpectrometer/internal/api/websocket"
	"github.com/KevinKickass/VirtualSpectrometer/internal/config"
	"github.com/KevinKickass/VirtualSpectrometer/internal/devices"
	"github.com/KevinKickass/VirtualSpectrometer/internal/interfaces"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type LifecycleManager struct {
	config *config.Config
	fs     afero.Fs
	clock  clockwork.Clock
	logger *zap.Logger

	managerMu     sync.RWMutex
	deviceManager *devices.Manager

	wsHub      *websocket.Hub
	hubCancel  context.CancelFunc
	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    error

	// reloadWg tracks an in-flight reload so Shutdown can wait for it
	reloadWg sync.WaitGroup

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

type Option func(*LifecycleManager)

// WithFs replaces the OS filesystem used for profiles and reference tables.
func WithFs(fs afero.Fs) Option {
	return func(lm *LifecycleManager) {
		lm.fs = fs
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(lm *LifecycleManager) {
		lm.clock = clock
	}
}

func NewLifecycleManager(cfg *config.Config, logger *zap.Logger, opts ...Option) *LifecycleManager {
	lm := &LifecycleManager{
		config:       cfg,
		fs:           afero.NewOsFs(),
		clock:        clockwork.NewRealClock(),
		logger:       logger,
		wsHub:        websocket.NewHub(logger),
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm
}

// Start builds the device registry, then brings up the hub and the REST API.
// A device that fails to load is fatal: drivers would otherwise see a
// partial bus.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting virtual spectrometer endpoint")

	manager, err := lm.buildDevices()
	if err != nil {
		lm.setError(err)
		return err
	}
	lm.setDeviceManager(manager)

	hubCtx, cancel := context.WithCancel(context.Background())
	lm.hubCancel = cancel
	go lm.wsHub.Run(hubCtx)

	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub)
	if err := lm.restServer.Start(); err != nil {
		err = fmt.Errorf("failed to start REST API: %w", err)
		lm.setError(err)
		return err
	}

	if err := lm.setState(StateRunning); err != nil {
		return err
	}
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Int("devices", manager.DeviceCount()),
		zap.Bool("streaming", lm.config.Streaming.Enabled))

	return nil
}

// buildDevices creates a fresh registry from configuration. Every device gets
// a new EEPROM cursor.
func (lm *LifecycleManager) buildDevices() (*devices.Manager, error) {
	manager, err := devices.NewManager(lm.fs, lm.config.Profiles.SearchPaths, lm.config.Waveform, lm.logger,
		devices.WithEventSink(lm.wsHub),
		devices.WithClock(lm.clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create device manager: %w", err)
	}

	lm.logger.Info("Attaching devices", zap.Int("count", len(lm.config.Devices)))

	for _, dev := range lm.config.Devices {
		device, err := manager.LoadDevice(dev)
		if err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), lm.config.Server.ShutdownTimeout)
			_ = manager.StopAll(stopCtx)
			cancel()
			return nil, fmt.Errorf("failed to load device %s: %w", dev.Name, err)
		}

		if lm.config.Streaming.Enabled {
			if err := manager.StartStreamer(device.ID, lm.config.Streaming.Interval); err != nil {
				lm.logger.Error("Failed to start streamer",
					zap.String("device", dev.Name),
					zap.Error(err))
			}
		}
	}

	return manager, nil
}

// TriggerReload rebuilds the device registry from configuration in the
// background. Drivers see every device reattached with a rewound EEPROM.
func (lm *LifecycleManager) TriggerReload() error {
	if err := lm.setState(StateReloading); err != nil {
		return fmt.Errorf("cannot reload: %w", err)
	}
	lm.broadcastStatus()

	lm.reloadWg.Add(1)
	go func() {
		defer lm.reloadWg.Done()
		lm.executeReload()
	}()
	return nil
}

func (lm *LifecycleManager) executeReload() {
	ctx, cancel := context.WithTimeout(context.Background(), lm.config.Server.ShutdownTimeout)
	defer cancel()

	manager, err := lm.buildDevices()
	if err != nil {
		lm.handleReloadError(err)
		return
	}

	old := lm.setDeviceManager(manager)
	if old != nil {
		if err := old.StopAll(ctx); err != nil {
			lm.logger.Warn("Previous devices did not stop cleanly", zap.Error(err))
		}
	}

	if err := lm.setState(StateRunning); err != nil {
		// Shutdown started meanwhile; it owns the new registry now.
		lm.logger.Info("Reload finished during shutdown")
		return
	}
	lm.broadcastStatus()

	lm.logger.Info("Reload completed", zap.Int("devices", manager.DeviceCount()))
}

func (lm *LifecycleManager) handleReloadError(err error) {
	lm.logger.Error("Reload failed", zap.Error(err))
	lm.setError(err)
	lm.broadcastStatus()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		if err := lm.setState(StateStopping); err != nil {
			lm.logger.Warn("Unexpected state at shutdown", zap.Error(err))
		}
		lm.broadcastStatus()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.forceState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

// Done is closed once Shutdown has finished.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var errs []error

	if lm.restServer != nil {
		if err := lm.restServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("rest api shutdown failed: %w", err))
		}
	}

	reloaded := make(chan struct{})
	go func() {
		lm.reloadWg.Wait()
		close(reloaded)
	}()
	select {
	case <-reloaded:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("waiting for reload: %w", ctx.Err()))
	}

	if manager := lm.DeviceManager(); manager != nil {
		if err := manager.StopAll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device manager stop failed: %w", err))
		}
	}

	if lm.hubCancel != nil {
		lm.hubCancel()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	lm.logger.Info("Graceful shutdown completed")
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) error {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		return err
	}
	lm.currentState = state
	if state != StateError {
		lm.lastError = nil
	}
	return nil
}

func (lm *LifecycleManager) forceState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
	lm.lastError = err
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	status := interfaces.SystemStatus{
		State:            lm.currentState.String(),
		ConnectedClients: lm.wsHub.GetClientCount(),
	}
	if lm.lastError != nil {
		status.Error = lm.lastError.Error()
	}
	lm.stateMu.RUnlock()

	if manager := lm.DeviceManager(); manager != nil {
		list := manager.ListDevices()
		status.DeviceCount = len(list)
		for _, d := range list {
			if manager.IsStreaming(d.ID) {
				status.StreamingDevices++
			}
		}
	}

	return status
}

func (lm *LifecycleManager) broadcastStatus() {
	lm.wsHub.Broadcast(websocket.NewSystemStatusMessage(lm.GetCurrentStatus()))
}

func (lm *LifecycleManager) setDeviceManager(m *devices.Manager) *devices.Manager {
	lm.managerMu.Lock()
	defer lm.managerMu.Unlock()
	old := lm.deviceManager
	lm.deviceManager = m
	return old
}

// DeviceManager returns the device manager
func (lm *LifecycleManager) DeviceManager() *devices.Manager {
	lm.managerMu.RLock()
	defer lm.managerMu.RUnlock()
	return lm.deviceManager
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// Hub returns the live event hub
func (lm *LifecycleManager) Hub() *websocket.Hub {
	return lm.wsHub
}
