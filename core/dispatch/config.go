package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// ParkWhenIdle sends idle vehicles to a parking point.
	ParkWhenIdle bool `json:"park_when_idle"`
	// RechargeWhenIdle sends idle vehicles with degraded energy to a
	// charger.
	RechargeWhenIdle bool `json:"recharge_when_idle"`
	// RechargeWhenEnergyCritical forces recharging before new transport
	// orders once the energy level is critical.
	RechargeWhenEnergyCritical bool `json:"recharge_when_energy_critical"`
	// AckTimeoutSeconds bounds controller round trips.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
}
