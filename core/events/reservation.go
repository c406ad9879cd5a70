package events

// ReservationEvent is published when an order is reserved for a vehicle
// whose current dispensable order must first be withdrawn.
type ReservationEvent struct {
	Order   string
	Vehicle string
}

// IdleFallbackEvent is published when an idle vehicle triggers one of the
// fallback branches. Created is false when no suitable target was found or
// the vehicle refused the synthesized order.
type IdleFallbackEvent struct {
	Vehicle string
	Kind    string
	Order   string
	Created bool
}
