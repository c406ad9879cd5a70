package dispatch

import "github.com/openagv/fleetkernel/core/model"

// Registry is the kernel object store the engine reads and mutates. All
// setters are atomic single-object writes; the engine's worker sequences
// everything beyond that.
type Registry interface {
	Vehicle(name string) (*model.Vehicle, error)
	Vehicles() []*model.Vehicle
	TransportOrder(name string) (*model.TransportOrder, error)
	// DispatchableOrders returns the order pool in priority order.
	DispatchableOrders() []*model.TransportOrder
	OrderSequence(name string) (*model.OrderSequence, error)
	Point(name string) (*model.Point, error)
	Points() []*model.Point
	Location(name string) (*model.Location, error)
	Locations() []*model.Location
	CreateOrder(o *model.TransportOrder) error

	SetVehicleProcState(name string, s model.ProcState) error
	SetVehicleState(name string, s model.VehicleState) error
	SetVehiclePosition(name, point string) error
	SetVehicleEnergyLevel(name string, level int) error
	SetVehicleOrder(name, order string) error
	SetVehicleSequence(name, sequence string) error
	SetOrderState(name string, s model.OrderState) error
	SetOrderProcessingVehicle(name, vehicle string) error
	SetOrderRoute(name string, route *model.Route) error
	SetOrderCurrentDriveOrder(name string, idx int) error
	AppendRejection(name string, rej model.Rejection) error
	SetSequenceProcessingVehicle(name, vehicle string) error
}

// Router computes and tracks routes. ComputeRoute returns false when the
// order cannot be reached from the given position.
type Router interface {
	ComputeRoute(v *model.Vehicle, from string, order *model.TransportOrder) (*model.Route, bool)
	CommitRoute(vehicle string, route *model.Route)
	ReleaseRoute(vehicle string)
}

// ResourceScheduler reserves the physical resources a route leg requires.
// Reserve returns an error on conflict; calls are synchronous but bounded.
type ResourceScheduler interface {
	Reserve(vehicle string, leg model.RouteLeg) error
	Release(vehicle string)
}

// VehicleController is the per-vehicle command channel.
type VehicleController interface {
	// CanProcess reports whether the vehicle can perform the given
	// operations. The reason is only meaningful when the answer is false.
	CanProcess(operations []string) (bool, string)
	SetDriveOrder(order model.DriveOrder, properties map[string]string) error
	AbortDriveOrder()
	ClearCommandQueue()
}

// ControllerPool hands out the controller attached to a vehicle.
type ControllerPool interface {
	ControllerFor(vehicle string) VehicleController
}

// ParkingStrategy picks a parking point for an idle vehicle.
type ParkingStrategy interface {
	SelectParkingPoint(v *model.Vehicle) (string, bool)
}

// RechargeStrategy picks a recharge location for a vehicle.
type RechargeStrategy interface {
	SelectRechargeLocation(v *model.Vehicle) (string, bool)
}
