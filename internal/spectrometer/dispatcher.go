package spectrometer

import (
	"context"
	"errors"
	"fmt"

	"github.com/KevinKickass/VirtualSpectrometer/internal/eeprom"
	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"go.uber.org/zap"
)

// wild marks a route field that matches any value.
const wild = -1

type route struct {
	name        string
	requestType int
	request     int
	value       int
	index       int
	length      int
	productID   int
	respond     func(d *Device, req usb.ControlRequest) ([]byte, error)
}

func (r route) matches(d *Device, req usb.ControlRequest) bool {
	return field(r.requestType, int(req.RequestType)) &&
		field(r.request, int(req.Request)) &&
		field(r.value, int(req.Value)) &&
		field(r.index, int(req.Index)) &&
		field(r.length, int(req.Length)) &&
		field(r.productID, int(d.identity.ProductID))
}

func field(want, got int) bool {
	return want == wild || want == got
}

func constant(b ...byte) func(*Device, usb.ControlRequest) ([]byte, error) {
	return func(*Device, usb.ControlRequest) ([]byte, error) {
		return append([]byte(nil), b...), nil
	}
}

// routes is the complete firmware vocabulary; first match wins.
var routes = []route{
	{
		name:        "eeprom_page",
		requestType: usb.RequestTypeVendorIn,
		request:     usb.OpSecondTier,
		value:       usb.SecondTierEEPROMPage,
		index:       wild,
		length:      0x40,
		productID:   wild,
		respond:     (*Device).nextEEPROMPage,
	},
	{
		name:        "fpga_compile_options",
		requestType: usb.RequestTypeVendorIn,
		request:     usb.OpSecondTier,
		value:       usb.SecondTierCompileOptions,
		index:       wild,
		length:      0x40,
		productID:   wild,
		respond:     constant(0xFF, 0xFF),
	},
	{
		name:        "line_length",
		requestType: usb.RequestTypeVendorIn,
		request:     usb.OpSecondTier,
		value:       usb.SecondTierLineLength,
		index:       0x00,
		length:      0x40,
		productID:   ProductSiliconSensor,
		respond:     constant(0x00, 0x04),
	},
	{
		name:        "firmware_revision",
		requestType: usb.RequestTypeVendorIn,
		request:     usb.OpGetFirmwareRevision,
		value:       0x00,
		index:       0x00,
		length:      0x40,
		productID:   wild,
		respond:     constant(0x00, 0x00),
	},
	{
		name:        "fpga_revision",
		requestType: usb.RequestTypeVendorIn,
		request:     usb.OpGetFPGARevision,
		value:       0x00,
		index:       0x00,
		length:      0x07,
		productID:   wild,
		respond:     constant(0x00, 0x00),
	},
}

// ControlTransfer answers a control request the way the firmware would.
// Unknown requests are logged and yield ErrNoResponse.
func (d *Device) ControlTransfer(ctx context.Context, req usb.ControlRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range routes {
		if !r.matches(d, req) {
			continue
		}

		data, err := r.respond(d, req)
		if err != nil {
			d.logger.Error("Control transfer failed",
				zap.String("route", r.name),
				zap.Stringer("request", req),
				zap.Error(err))
			return nil, err
		}

		d.logger.Debug("Control transfer",
			zap.String("route", r.name),
			zap.Binary("response", data))
		return data, nil
	}

	d.logger.Warn("Unhandled control transfer",
		zap.String("bmRequestType", hex(int(req.RequestType))),
		zap.String("bRequest", hex(int(req.Request))),
		zap.String("wValue", hex(int(req.Value))),
		zap.String("wIndex", hex(int(req.Index))),
		zap.String("wLength", hex(int(req.Length))),
		zap.Duration("timeout", req.Timeout))

	d.publish(Event{Kind: EventControlUnhandled, Request: &req})

	return nil, ErrNoResponse
}

func (d *Device) nextEEPROMPage(usb.ControlRequest) ([]byte, error) {
	index, page, err := d.cursor.Next()
	if err != nil {
		return nil, fmt.Errorf("eeprom page %d: %w", index, err)
	}

	d.publish(Event{Kind: EventEEPROMPage, Page: index, Length: len(page)})
	return page, nil
}

// IsNoResponse reports whether err means the request was not recognized.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// IsEEPROMExhausted reports whether err is an over-read of the EEPROM.
func IsEEPROMExhausted(err error) bool {
	return errors.Is(err, eeprom.ErrExhausted)
}

func hex(v int) string {
	return fmt.Sprintf("%#x", v)
}
