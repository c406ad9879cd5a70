package model

import (
	"fmt"
	"strings"
)

// ProcState describes a vehicle's logical processing state as seen by the
// dispatch engine. It is independent of the physical State reported by the
// vehicle itself.
type ProcState int

const (
	// ProcIdle means the vehicle is not assigned to any transport order.
	ProcIdle ProcState = iota
	// ProcAwaitingOrder means the vehicle finished a drive order and waits
	// for the next leg of its current transport order.
	ProcAwaitingOrder
	// ProcProcessingOrder means the vehicle is executing a drive order.
	ProcProcessingOrder
	// ProcUnavailable means the vehicle is withdrawn from dispatching.
	ProcUnavailable
)

// String returns a human-readable representation of the processing state.
func (s ProcState) String() string {
	switch s {
	case ProcIdle:
		return "IDLE"
	case ProcAwaitingOrder:
		return "AWAITING_ORDER"
	case ProcProcessingOrder:
		return "PROCESSING_ORDER"
	case ProcUnavailable:
		return "UNAVAILABLE"
	default:
		return "unknown"
	}
}

// VehicleState is the physical state reported by the vehicle's driver.
type VehicleState int

const (
	StateUnknown VehicleState = iota
	StateUnavailable
	StateError
	StateIdle
	StateExecuting
	StateCharging
)

// ParseVehicleState maps a driver-reported state string to a
// VehicleState. Unrecognized strings map to StateUnknown.
func ParseVehicleState(s string) VehicleState {
	switch strings.ToUpper(s) {
	case "UNAVAILABLE":
		return StateUnavailable
	case "ERROR":
		return StateError
	case "IDLE":
		return StateIdle
	case "EXECUTING":
		return StateExecuting
	case "CHARGING":
		return StateCharging
	default:
		return StateUnknown
	}
}

// String returns a human-readable representation of the physical state.
func (s VehicleState) String() string {
	switch s {
	case StateUnavailable:
		return "UNAVAILABLE"
	case StateError:
		return "ERROR"
	case StateIdle:
		return "IDLE"
	case StateExecuting:
		return "EXECUTING"
	case StateCharging:
		return "CHARGING"
	default:
		return "UNKNOWN"
	}
}

// Vehicle represents an automated vehicle managed by the fleet kernel.
type Vehicle struct {
	Name      string
	ProcState ProcState
	State     VehicleState

	// Position is the name of the point the vehicle currently occupies.
	// Empty means the position is unknown.
	Position string

	// EnergyLevel is the remaining energy in percent (0..100).
	EnergyLevel int
	// EnergyLevelCritical is the threshold at or below which the vehicle
	// must be recharged before taking new work.
	EnergyLevelCritical int
	// EnergyLevelGood is the threshold at or above which the vehicle is
	// considered fully operational.
	EnergyLevelGood int

	// TransportOrder names the order the vehicle currently processes.
	TransportOrder string
	// OrderSequence names the sequence the vehicle is bound to.
	OrderSequence string
}

// PositionKnown reports whether the vehicle's current position is known.
func (v Vehicle) PositionKnown() bool { return v.Position != "" }

// EnergyCritical reports whether the energy level is at or below the
// critical threshold.
func (v Vehicle) EnergyCritical() bool { return v.EnergyLevel <= v.EnergyLevelCritical }

// EnergyDegraded reports whether the energy level is below the good
// threshold. A degraded vehicle may still take orders but is a candidate
// for opportunistic recharging.
func (v Vehicle) EnergyDegraded() bool { return v.EnergyLevel < v.EnergyLevelGood }

// Validate checks that the vehicle configuration is sound.
func (v Vehicle) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("vehicle name must not be empty")
	}
	if v.EnergyLevel < 0 || v.EnergyLevel > 100 {
		return fmt.Errorf("energy level %d out of range", v.EnergyLevel)
	}
	if v.EnergyLevelCritical > v.EnergyLevelGood {
		return fmt.Errorf("critical threshold %d above good threshold %d",
			v.EnergyLevelCritical, v.EnergyLevelGood)
	}
	return nil
}
