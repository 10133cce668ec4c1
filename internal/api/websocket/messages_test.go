package websocket

import (
	"testing"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMessage_ControlUnhandled(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, ok := NewEventMessage(spectrometer.Event{
		Kind:       spectrometer.EventControlUnhandled,
		DeviceID:   id,
		DeviceName: "xs",
		Request: &usb.ControlRequest{
			RequestType: 0xC0,
			Request:     0xFF,
			Value:       0x03,
			Index:       0x00,
			Length:      0x40,
			Timeout:     time.Second,
		},
		Timestamp: ts,
	})
	require.True(t, ok)

	assert.Equal(t, MessageTypeControlUnhandled, msg.Type)
	assert.Equal(t, ts, msg.Timestamp)
	assert.Equal(t, ControlUnhandledData{
		DeviceRef:   DeviceRef{DeviceID: id.String(), DeviceName: "xs"},
		RequestType: "0xc0",
		Request:     "0xff",
		Value:       "0x3",
		Index:       "0x0",
		Length:      "0x40",
		TimeoutMs:   1000,
	}, msg.Data)
}

func TestNewEventMessage_Spectrum(t *testing.T) {
	t.Parallel()

	words := usb.EncodeSamples([]uint32{1, 0x123456, 70000})
	msg, ok := NewEventMessage(spectrometer.Event{
		Kind:   spectrometer.EventSpectrum,
		Length: len(words) - 1,
		Words:  words[:len(words)-1],
	})
	require.True(t, ok)

	data, ok := msg.Data.(SpectrumData)
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 0x123456}, data.Samples)
}

func TestNewEventMessage_EEPROMPage(t *testing.T) {
	t.Parallel()

	msg, ok := NewEventMessage(spectrometer.Event{Kind: spectrometer.EventEEPROMPage, Page: 3, Length: 64})
	require.True(t, ok)
	assert.Equal(t, MessageTypeEEPROMPage, msg.Type)
	assert.Equal(t, 3, msg.Data.(EEPROMPageData).Page)
}

func TestNewEventMessage_UnknownKind(t *testing.T) {
	t.Parallel()

	_, ok := NewEventMessage(spectrometer.Event{Kind: "bogus"})
	assert.False(t, ok)
}
