package types

// ConnectedDevice is one entry of the boot-time device list: a profile plus
// whatever this particular unit reports differently.
type ConnectedDevice struct {
	Name      string          `json:"name" mapstructure:"name"`
	Profile   string          `json:"profile" mapstructure:"profile"`
	Overrides DeviceOverrides `json:"overrides" mapstructure:"overrides"`
}

// DeviceOverrides are applied on top of the profile. Nil means "keep the
// profile value".
type DeviceOverrides struct {
	ProductID    *uint16 `json:"product_id,omitempty" mapstructure:"product_id"`
	SerialNumber *string `json:"serial_number,omitempty" mapstructure:"serial_number"`
	Bus          *int    `json:"bus,omitempty" mapstructure:"bus"`
	Address      *int    `json:"address,omitempty" mapstructure:"address"`
	Model        *string `json:"model,omitempty" mapstructure:"model"`
	HasBattery   *bool   `json:"has_battery,omitempty" mapstructure:"has_battery"`
	HasLaser     *bool   `json:"has_laser,omitempty" mapstructure:"has_laser"`
	HasCooling   *bool   `json:"has_cooling,omitempty" mapstructure:"has_cooling"`
	PixelCount   *int    `json:"pixel_count,omitempty" mapstructure:"pixel_count"`
}
