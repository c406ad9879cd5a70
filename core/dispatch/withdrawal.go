package dispatch

import (
	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
)

// abortOrder handles a withdrawal request for a vehicle, or an internal
// preemption of its dispensable order. Abortion is cooperative: the
// vehicle finishes its current leg, reports back, and only then is the
// order finalized.
func (e *Engine) abortOrder(name string, disableVehicle bool) {
	v, err := e.registry.Vehicle(name)
	if err != nil {
		e.log.Errorf("withdrawal for unknown vehicle %s: %v", name, err)
		return
	}

	if v.TransportOrder == "" {
		// Nothing to abort; only the vehicle's availability changes.
		if disableVehicle {
			_ = e.registry.SetVehicleProcState(v.Name, model.ProcUnavailable)
			e.reservations.RemoveVehicle(v.Name)
		} else {
			_ = e.registry.SetVehicleProcState(v.Name, model.ProcIdle)
		}
		delete(e.toDisable, v.Name)
		return
	}

	o, err := e.registry.TransportOrder(v.TransportOrder)
	if err != nil {
		e.log.Errorf("vehicle %s references unknown order %s", v.Name, v.TransportOrder)
		return
	}
	if o.State == model.OrderWithdrawn {
		// Already withdrawn: finalize right away.
		e.finalizeWithdrawal(v, o, disableVehicle || e.disableRequested(v.Name))
		return
	}

	e.log.Infof("withdrawing order %s from vehicle %s", o.Name, v.Name)
	_ = e.registry.SetOrderState(o.Name, model.OrderWithdrawn)
	if disableVehicle {
		e.toDisable[v.Name] = struct{}{}
	}
	withdrawals.Inc()
	e.publish(events.OrderWithdrawnEvent{Order: o.Name, Vehicle: v.Name, DisableVehicle: disableVehicle})
	e.record(logging.Record{Outcome: logging.OutcomeWithdrawn, Order: o.Name, Vehicle: v.Name})
	e.controllers.ControllerFor(v.Name).AbortDriveOrder()
}

// finalizeWithdrawal fails a withdrawn order once the vehicle's current
// leg is done, unlinks vehicle and order and releases route and resources.
func (e *Engine) finalizeWithdrawal(v *model.Vehicle, o *model.TransportOrder, disableVehicle bool) {
	e.log.Infof("finalizing withdrawal of order %s from vehicle %s", o.Name, v.Name)
	ctrl := e.controllers.ControllerFor(v.Name)
	ctrl.AbortDriveOrder()
	ctrl.ClearCommandQueue()

	_ = e.registry.SetOrderState(o.Name, model.OrderFailed)
	_ = e.registry.SetVehicleOrder(v.Name, "")
	if disableVehicle {
		_ = e.registry.SetVehicleProcState(v.Name, model.ProcUnavailable)
		e.reservations.RemoveVehicle(v.Name)
	} else {
		_ = e.registry.SetVehicleProcState(v.Name, model.ProcIdle)
	}
	delete(e.toDisable, v.Name)
	e.router.ReleaseRoute(v.Name)
	e.scheduler.Release(v.Name)
	e.wakeAwaitingVehicles(v.Name)
	e.publish(events.OrderWithdrawnEvent{Order: o.Name, Vehicle: v.Name, DisableVehicle: disableVehicle, Finalized: true})
	e.record(logging.Record{Outcome: logging.OutcomeFinalized, Order: o.Name, Vehicle: v.Name})
}
