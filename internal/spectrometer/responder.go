package spectrometer

import (
	"context"
	"slices"

	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"go.uber.org/zap"
)

// Read answers a bulk read. It never fails: spectrum-sized requests get a
// freshly generated spectrum, anything else gets zeros. The reply always has
// exactly req.Length register words.
func (d *Device) Read(ctx context.Context, req usb.BulkReadRequest) []uint16 {
	length := max(req.Length, 0)

	if !d.IsSpectrumLength(length) {
		d.logger.Debug("Bulk read answered with zeros", zap.Stringer("request", req))
		return make([]uint16, length)
	}

	words := fit(usb.EncodeSamples(d.generator.Generate(d.pixelCount)), length)

	d.logger.Debug("Bulk read answered with spectrum",
		zap.Stringer("request", req),
		zap.Int("pixels", d.pixelCount))
	d.publish(Event{Kind: EventSpectrum, Length: length, Words: words})

	return words
}

func (d *Device) IsSpectrumLength(length int) bool {
	return slices.Contains(d.spectrumLengths, length)
}

// fit truncates or zero-pads words to length.
func fit(words []uint16, length int) []uint16 {
	if len(words) >= length {
		return words[:length:length]
	}
	out := make([]uint16, length)
	copy(out, words)
	return out
}
