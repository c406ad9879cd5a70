package config

// StrategiesConfig selects the idle-vehicle strategies by registered
// plugin name.
type StrategiesConfig struct {
	// Parking names the parking point selection strategy.
	Parking string `json:"parking"`
	// Recharge names the recharge location selection strategy.
	Recharge string `json:"recharge"`
}

// SetDefaults applies sane defaults.
func (c *StrategiesConfig) SetDefaults() {
	if c.Parking == "" {
		c.Parking = "closest"
	}
	if c.Recharge == "" {
		c.Recharge = "first"
	}
}
