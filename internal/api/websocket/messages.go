package websocket

import (
	"strconv"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Device-related messages
	MessageTypeControlUnhandled MessageType = "control_unhandled"
	MessageTypeEEPROMPage       MessageType = "eeprom_page"
	MessageTypeSpectrum         MessageType = "spectrum"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// DeviceRef identifies the device a message is about.
type DeviceRef struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// ControlUnhandledData carries the request fields hex-formatted, as in the log.
type ControlUnhandledData struct {
	DeviceRef
	RequestType string `json:"bmRequestType"`
	Request     string `json:"bRequest"`
	Value       string `json:"wValue"`
	Index       string `json:"wIndex"`
	Length      string `json:"wLength"`
	TimeoutMs   int64  `json:"timeout_ms"`
}

type EEPROMPageData struct {
	DeviceRef
	Page   int `json:"page"`
	Length int `json:"length"`
}

// SpectrumData carries decoded pixel values rather than register words.
type SpectrumData struct {
	DeviceRef
	Length  int      `json:"length"`
	Samples []uint32 `json:"samples"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewEventMessage converts a device event into its wire message.
func NewEventMessage(ev spectrometer.Event) (Message, bool) {
	ref := DeviceRef{DeviceID: ev.DeviceID.String(), DeviceName: ev.DeviceName}

	var msg Message
	switch ev.Kind {
	case spectrometer.EventControlUnhandled:
		data := ControlUnhandledData{DeviceRef: ref}
		if req := ev.Request; req != nil {
			data.RequestType = hex(uint64(req.RequestType))
			data.Request = hex(uint64(req.Request))
			data.Value = hex(uint64(req.Value))
			data.Index = hex(uint64(req.Index))
			data.Length = hex(uint64(req.Length))
			data.TimeoutMs = req.Timeout.Milliseconds()
		}
		msg = NewMessage(MessageTypeControlUnhandled, data)

	case spectrometer.EventEEPROMPage:
		msg = NewMessage(MessageTypeEEPROMPage, EEPROMPageData{
			DeviceRef: ref,
			Page:      ev.Page,
			Length:    ev.Length,
		})

	case spectrometer.EventSpectrum:
		// An odd word count leaves half a sample at the end; drop it.
		words := ev.Words[:len(ev.Words)&^1]
		samples, err := usb.DecodeSamples(words)
		if err != nil {
			return Message{}, false
		}
		msg = NewMessage(MessageTypeSpectrum, SpectrumData{
			DeviceRef: ref,
			Length:    ev.Length,
			Samples:   samples,
		})

	default:
		return Message{}, false
	}

	if !ev.Timestamp.IsZero() {
		msg.Timestamp = ev.Timestamp
	}
	return msg, true
}

func NewSystemStatusMessage(status any) Message {
	return NewMessage(MessageTypeSystemStatus, status)
}

func hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
