package interfaces

import (
	"context"

	"github.com/KevinKickass/VirtualSpectrometer/internal/config"
	"github.com/KevinKickass/VirtualSpectrometer/internal/devices"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	DeviceCount      int    `json:"device_count"`
	StreamingDevices int    `json:"streaming_devices"`
	ConnectedClients int    `json:"connected_clients"`
	Error            string `json:"error,omitempty"`
}

type LifecycleManager interface {
	Config() *config.Config
	DeviceManager() *devices.Manager
	GetCurrentStatus() SystemStatus
	TriggerReload() error
	Shutdown(ctx context.Context) error
}
