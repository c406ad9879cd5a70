package model

// Dispatchable is the single element type of the dispatch engine's event
// queue. It is a sealed union: exactly the three variants below exist, and
// the engine's worker dispatches on them exhaustively.
type Dispatchable interface {
	dispatchable()
}

// VehicleDispatch signals that a vehicle became available for dispatching.
type VehicleDispatch struct {
	Vehicle string
}

// OrderDispatch signals that a transport order entered the DISPATCHABLE
// state.
type OrderDispatch struct {
	Order string
}

// Withdrawal requests that a vehicle's current transport order be aborted.
// DisableVehicle additionally takes the vehicle out of service once the
// abort completes.
type Withdrawal struct {
	Vehicle        string
	DisableVehicle bool
}

func (VehicleDispatch) dispatchable() {}
func (OrderDispatch) dispatchable()   {}
func (Withdrawal) dispatchable()      {}
