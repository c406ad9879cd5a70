package dispatch

import (
	"fmt"

	"github.com/openagv/fleetkernel/core/model"
)

// VehicleReport carries a driver's state report into the kernel. Zero
// values mean "not reported": an empty Position or StateUnknown leaves
// the registry untouched, a negative EnergyLevel is ignored.
type VehicleReport struct {
	Vehicle  string
	Position string
	State    model.VehicleState
	// EnergyLevel is the reported charge in percent, negative when the
	// driver did not report energy.
	EnergyLevel int
	// OrderComplete reports that the last commanded drive order finished.
	OrderComplete bool
}

// HandleVehicleReport applies a driver report to the registry and wakes
// the dispatch cycle for the vehicle. This is the only path on which an
// executing vehicle returns to AWAITING_ORDER, so order continuation,
// completion and withdrawal finalization all hang off it.
func (e *Engine) HandleVehicleReport(r VehicleReport) error {
	if r.Vehicle == "" {
		return fmt.Errorf("dispatch: vehicle report without vehicle name")
	}
	if _, err := e.registry.Vehicle(r.Vehicle); err != nil {
		return fmt.Errorf("dispatch: report for unknown vehicle %s: %w", r.Vehicle, err)
	}
	if r.Position != "" {
		if err := e.registry.SetVehiclePosition(r.Vehicle, r.Position); err != nil {
			return err
		}
	}
	if r.State != model.StateUnknown {
		if err := e.registry.SetVehicleState(r.Vehicle, r.State); err != nil {
			return err
		}
	}
	if r.EnergyLevel >= 0 {
		level := r.EnergyLevel
		if level > 100 {
			level = 100
		}
		if err := e.registry.SetVehicleEnergyLevel(r.Vehicle, level); err != nil {
			return err
		}
	}

	v, err := e.registry.Vehicle(r.Vehicle)
	if err != nil {
		return err
	}
	if r.OrderComplete && v.ProcState == model.ProcProcessingOrder {
		if err := e.registry.SetVehicleProcState(v.Name, model.ProcAwaitingOrder); err != nil {
			return err
		}
		v.ProcState = model.ProcAwaitingOrder
	}
	e.DispatchVehicle(v)
	return nil
}
