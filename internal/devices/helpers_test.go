package devices

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const siliconJSON = `{
  "device_profile": {
    "id": "wasatch-silicon",
    "vendor": "Wasatch Photonics",
    "model": "WP-785",
    "version": "1.0"
  },
  "usb": {
    "vendor_id": 9386,
    "product_id": 4096,
    "product": "Wasatch Photonics Virtual Hamamatsu Silicon",
    "serial_number": "0x000000"
  },
  "detector": {
    "pixel_count": 1024,
    "spectrum_lengths": [1024, 2048]
  },
  "eeprom": {
    "model": "WP-785",
    "excitation_nm": 785,
    "detector_name": "S11511"
  }
}`

const xsYAML = `device_profile:
  id: wasatch-xs
  vendor: Wasatch Photonics
  model: Test XS
usb:
  vendor_id: 0x24AA
  product_id: 0x4000
  serial_number: XS-0001
detector:
  pixel_count: 1024
eeprom:
  model: Test XS
  has_battery: true
  has_laser: true
waveform:
  strategy: analytic
  noise_amplitude: 0
`

func testFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profiles/wasatch-silicon.json", []byte(siliconJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/wasatch-xs.yaml", []byte(xsYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/README.md", []byte("not a profile"), 0o644))
	return fs
}
