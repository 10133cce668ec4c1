package usb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// bmRequestType Bitfelder (USB 2.0 Table 9-2)
const (
	RequestDirectionMask = 0x80
	RequestTypeMask      = 0x60
	RequestRecipientMask = 0x1F

	DirectionHostToDevice = 0x00
	DirectionDeviceToHost = 0x80

	TypeStandard = 0x00
	TypeClass    = 0x20
	TypeVendor   = 0x40

	RecipientDevice    = 0x00
	RecipientInterface = 0x01
	RecipientEndpoint  = 0x02
)

// RequestTypeVendorIn is the bmRequestType every spectrometer query is sent with:
// device-to-host, vendor, device recipient.
const RequestTypeVendorIn = DirectionDeviceToHost | TypeVendor | RecipientDevice

// Vendor opcodes (bRequest)
const (
	OpGetFPGARevision     = 0xB4
	OpGetFirmwareRevision = 0xC0
	OpSecondTier          = 0xFF
)

// Second-tier selectors, carried in wValue of an OpSecondTier request.
const (
	SecondTierEEPROMPage     = 0x01
	SecondTierLineLength     = 0x03
	SecondTierCompileOptions = 0x04
)

// Bulk endpoints
const (
	EndpointSpectrum = 0x82
)

// SetupPacketSize is the wire size of a control setup stage.
const SetupPacketSize = 8

var ErrSetupPacketTooShort = errors.New("setup packet too short")

// ControlRequest is one control transfer as issued by a driver.
type ControlRequest struct {
	RequestType uint8         `json:"request_type"`
	Request     uint8         `json:"request"`
	Value       uint16        `json:"value"`
	Index       uint16        `json:"index"`
	Length      uint16        `json:"length"`
	Timeout     time.Duration `json:"timeout,omitempty"` // nur für Logs
}

// BulkReadRequest asks an IN endpoint for Length elements.
type BulkReadRequest struct {
	Endpoint uint8         `json:"endpoint"`
	Length   int           `json:"length"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// ParseSetupPacket dekodiert ein 8-Byte Setup Packet (little endian)
func ParseSetupPacket(data []byte) (ControlRequest, error) {
	if len(data) < SetupPacketSize {
		return ControlRequest{}, fmt.Errorf("%w: %d bytes", ErrSetupPacketTooShort, len(data))
	}

	return ControlRequest{
		RequestType: data[0],
		Request:     data[1],
		Value:       binary.LittleEndian.Uint16(data[2:4]),
		Index:       binary.LittleEndian.Uint16(data[4:6]),
		Length:      binary.LittleEndian.Uint16(data[6:8]),
	}, nil
}

// MarshalSetup erstellt das 8-Byte Setup Packet
func (r ControlRequest) MarshalSetup() []byte {
	buf := make([]byte, SetupPacketSize)
	buf[0] = r.RequestType
	buf[1] = r.Request
	binary.LittleEndian.PutUint16(buf[2:4], r.Value)
	binary.LittleEndian.PutUint16(buf[4:6], r.Index)
	binary.LittleEndian.PutUint16(buf[6:8], r.Length)
	return buf
}

func (r ControlRequest) IsDeviceToHost() bool {
	return r.RequestType&RequestDirectionMask == DirectionDeviceToHost
}

func (r ControlRequest) IsVendor() bool {
	return r.RequestType&RequestTypeMask == TypeVendor
}

func (r ControlRequest) String() string {
	return fmt.Sprintf("bmRequestType=%#x bRequest=%#x wValue=%#x wIndex=%#x wLength=%#x timeout=%s",
		r.RequestType, r.Request, r.Value, r.Index, r.Length, r.Timeout)
}

func (r BulkReadRequest) String() string {
	return fmt.Sprintf("endpoint=%#x length=%#x timeout=%s", r.Endpoint, r.Length, r.Timeout)
}
