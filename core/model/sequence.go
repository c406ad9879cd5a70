package model

// OrderSequence groups transport orders that must be processed by one
// vehicle in order. Once a member order is assigned, the sequence's
// processing vehicle is fixed and subsequent members must go to it.
type OrderSequence struct {
	Name   string
	Orders []string

	// IntendedVehicle restricts the whole sequence to the named vehicle.
	IntendedVehicle string
	// ProcessingVehicle is set when the first member order is assigned.
	ProcessingVehicle string

	// FailureFatal aborts the remaining members if one of them fails.
	FailureFatal bool
	// Complete means no further orders will be added to the sequence.
	Complete bool
}
