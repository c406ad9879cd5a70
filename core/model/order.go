package model

import "time"

// OrderState describes the lifecycle state of a transport order.
type OrderState int

const (
	// OrderRaw is the initial state of a freshly created order.
	OrderRaw OrderState = iota
	// OrderActive means the order's prerequisites are being prepared.
	OrderActive
	// OrderDispatchable means the order may be assigned to a vehicle.
	OrderDispatchable
	// OrderBeingProcessed means a vehicle is executing the order.
	OrderBeingProcessed
	// OrderWithdrawn means the order is being aborted; the vehicle still
	// finishes its current leg before the order is finalized.
	OrderWithdrawn
	// OrderFinished means all drive orders completed successfully.
	OrderFinished
	// OrderFailed means the order terminated without completing.
	OrderFailed
)

// String returns a human-readable representation of the order state.
func (s OrderState) String() string {
	switch s {
	case OrderRaw:
		return "RAW"
	case OrderActive:
		return "ACTIVE"
	case OrderDispatchable:
		return "DISPATCHABLE"
	case OrderBeingProcessed:
		return "BEING_PROCESSED"
	case OrderWithdrawn:
		return "WITHDRAWN"
	case OrderFinished:
		return "FINISHED"
	case OrderFailed:
		return "FAILED"
	default:
		return "unknown"
	}
}

// Final reports whether the state is terminal.
func (s OrderState) Final() bool { return s == OrderFinished || s == OrderFailed }

// Operations understood by every vehicle in addition to plant-specific ones.
const (
	// OpNop instructs the vehicle to do nothing at the destination.
	OpNop = "NOP"
	// OpRecharge instructs the vehicle to recharge at the destination.
	OpRecharge = "RECHARGE"
	// OpPark instructs the vehicle to park at the destination.
	OpPark = "PARK"
)

// DriveOrder is one leg of a transport order: a destination plus the
// operation to perform there. The destination may name a point or a
// location; locations are resolved to their linked point by the router.
type DriveOrder struct {
	Destination string            `json:"destination"`
	Operation   string            `json:"operation"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// Rejection records why a vehicle was not assigned an order. Rejections are
// an append-only audit trail on the order.
type Rejection struct {
	Vehicle string    `json:"vehicle"`
	Reason  string    `json:"reason"`
	Time    time.Time `json:"time"`
}

// ReasonUnroutable is the rejection reason recorded when the router cannot
// produce a route from the vehicle's position to the order's destinations.
const ReasonUnroutable = "Unroutable"

// TransportOrder is a sequence of drive orders to be executed by a single
// vehicle.
type TransportOrder struct {
	Name        string
	DriveOrders []DriveOrder
	// CurrentDriveOrder is the index of the leg being executed. It is -1
	// until the order is assigned.
	CurrentDriveOrder int
	State             OrderState

	// IntendedVehicle restricts assignment to the named vehicle.
	IntendedVehicle string
	// ProcessingVehicle names the vehicle executing the order.
	ProcessingVehicle string
	// WrappingSequence names the order sequence this order belongs to.
	WrappingSequence string

	// Dispensable orders may be withdrawn to free their vehicle for a
	// better-fitting order.
	Dispensable bool

	// Route is attached when the order is assigned; its legs align with
	// DriveOrders.
	Route *Route

	Properties map[string]string
	Rejections []Rejection
	Created    time.Time
}

// Operations returns the operations of all drive orders, in leg order.
func (o *TransportOrder) Operations() []string {
	ops := make([]string, len(o.DriveOrders))
	for i, d := range o.DriveOrders {
		ops[i] = d.Operation
	}
	return ops
}
