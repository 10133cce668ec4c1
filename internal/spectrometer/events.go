package spectrometer

import (
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"github.com/google/uuid"
)

type EventKind string

const (
	EventControlUnhandled EventKind = "control_unhandled"
	EventEEPROMPage       EventKind = "eeprom_page"
	EventSpectrum         EventKind = "spectrum"
)

// Event is published for anything a test harness might want to watch live.
type Event struct {
	Kind       EventKind           `json:"kind"`
	DeviceID   uuid.UUID           `json:"device_id"`
	DeviceName string              `json:"device_name"`
	Request    *usb.ControlRequest `json:"request,omitempty"`
	Page       int                 `json:"page,omitempty"`
	Length     int                 `json:"length,omitempty"`
	Words      []uint16            `json:"words,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

type EventSink interface {
	Publish(Event)
}

type noopSink struct{}

func (noopSink) Publish(Event) {}

func (d *Device) publish(ev Event) {
	ev.DeviceID = d.ID
	ev.DeviceName = d.Name
	ev.Timestamp = time.Now()
	d.sink.Publish(ev)
}
