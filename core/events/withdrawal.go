package events

// OrderWithdrawnEvent is published when a withdrawal is initiated for a
// vehicle's current order and again, with Finalized set, once the order is
// failed and the vehicle is unlinked.
type OrderWithdrawnEvent struct {
	Order          string
	Vehicle        string
	DisableVehicle bool
	Finalized      bool
}
