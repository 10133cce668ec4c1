package spectrometer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Capability names an operation a driver may invoke on the device. The set is
// closed: anything outside it is rejected instead of silently ignored.
type Capability string

const (
	CapControlTransfer  Capability = "control_transfer"
	CapBulkRead         Capability = "bulk_read"
	CapSetConfiguration Capability = "set_configuration"
	CapClaimInterface   Capability = "claim_interface"
	CapReleaseInterface Capability = "release_interface"
)

var capabilities = []Capability{
	CapControlTransfer,
	CapBulkRead,
	CapSetConfiguration,
	CapClaimInterface,
	CapReleaseInterface,
}

func ParseCapability(s string) (Capability, error) {
	for _, c := range capabilities {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOperation, s)
}

// IsNoop reports whether the capability is accepted without any effect.
func (c Capability) IsNoop() bool {
	switch c {
	case CapSetConfiguration, CapClaimInterface, CapReleaseInterface:
		return true
	default:
		return false
	}
}

func (d *Device) Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// SetConfiguration is accepted and ignored; there is no firmware to configure.
func (d *Device) SetConfiguration(ctx context.Context, configuration int) error {
	d.logger.Debug("Set configuration ignored", zap.Int("configuration", configuration))
	return nil
}

func (d *Device) ClaimInterface(ctx context.Context, iface int) error {
	d.logger.Debug("Claim interface ignored", zap.Int("interface", iface))
	return nil
}

func (d *Device) ReleaseInterface(ctx context.Context, iface int) error {
	d.logger.Debug("Release interface ignored", zap.Int("interface", iface))
	return nil
}

// Invoke runs one of the no-op capabilities by name. Data-carrying
// capabilities have their own entry points.
func (d *Device) Invoke(ctx context.Context, c Capability, arg int) error {
	switch c {
	case CapSetConfiguration:
		return d.SetConfiguration(ctx, arg)
	case CapClaimInterface:
		return d.ClaimInterface(ctx, arg)
	case CapReleaseInterface:
		return d.ReleaseInterface(ctx, arg)
	case CapControlTransfer, CapBulkRead:
		return fmt.Errorf("%w: %s carries data, use its transfer call", ErrUnsupportedOperation, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedOperation, c)
	}
}
