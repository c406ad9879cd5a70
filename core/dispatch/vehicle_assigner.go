package dispatch

import (
	"github.com/openagv/fleetkernel/core/model"
)

// dispatchVehicle handles a vehicle-became-dispatchable event. Unlike the
// order side's min-cost policy, order selection here is first-fit over the
// pool's priority order.
func (e *Engine) dispatchVehicle(name string) {
	// A vehicle must never leave this handler as the target of a
	// reservation it did not just consume.
	defer e.reservations.RemoveVehicle(name)

	v, err := e.registry.Vehicle(name)
	if err != nil {
		e.log.Errorf("vehicle event for unknown vehicle %s: %v", name, err)
		return
	}

	if v.TransportOrder != "" {
		o, err := e.registry.TransportOrder(v.TransportOrder)
		if err != nil {
			e.log.Errorf("vehicle %s references unknown order %s", v.Name, v.TransportOrder)
			return
		}
		switch {
		case o.State == model.OrderWithdrawn:
			// The controller reported the aborted leg finished.
			disable := e.disableRequested(v.Name)
			e.finalizeWithdrawal(v, o, disable)
			if disable {
				return
			}
			v, err = e.registry.Vehicle(name)
			if err != nil {
				return
			}
		case v.ProcState == model.ProcAwaitingOrder:
			e.continueOrder(v, o)
			return
		default:
			e.log.Debugf("vehicle %s still processing order %s", v.Name, o.Name)
			return
		}
	}

	if v.ProcState != model.ProcIdle {
		e.log.Debugf("vehicle %s not idle (%s)", v.Name, v.ProcState)
		return
	}

	selected, route := e.selectOrder(v)

	// Recharge-on-critical overrides everything except orders that are
	// mandatory because their sequence is already being processed.
	if e.cfg.RechargeWhenEnergyCritical && v.EnergyCritical() && !e.mandatoryOrder(selected) {
		if v.State == model.StateCharging {
			return
		}
		e.createRechargeOrder(v)
		return
	}
	if selected != nil {
		e.assignTransportOrder(v, selected, route)
		return
	}
	if e.cfg.RechargeWhenIdle && v.EnergyDegraded() && v.State != model.StateCharging {
		if e.createRechargeOrder(v) {
			return
		}
	}
	if e.cfg.ParkWhenIdle && !e.atParkingPosition(v) &&
		!(v.State == model.StateCharging && v.EnergyLevel < 100) {
		e.createParkingOrder(v)
	}
}

// selectOrder picks a transport order for the vehicle. A reservation
// naming the vehicle short-circuits the pool; otherwise the first routable
// and processable order in pool order wins.
func (e *Engine) selectOrder(v *model.Vehicle) (*model.TransportOrder, *model.Route) {
	if reserved, ok := e.reservations.OrderFor(v.Name); ok {
		o, err := e.registry.TransportOrder(reserved)
		if err != nil {
			e.log.Errorf("reservation names unknown order %s", reserved)
			return nil, nil
		}
		if o.State != model.OrderDispatchable {
			e.log.Debugf("reserved order %s no longer dispatchable (%s)", o.Name, o.State)
			return nil, nil
		}
		if route, ok := e.checkCandidate(v, o); ok {
			return o, route
		}
		return nil, nil
	}
	for _, o := range e.registry.DispatchableOrders() {
		if !e.orderSuitsVehicle(v, o) {
			continue
		}
		if route, ok := e.checkCandidate(v, o); ok {
			return o, route
		}
	}
	return nil, nil
}

// orderSuitsVehicle filters the pool for the vehicle: reservations for
// other vehicles, foreign intended vehicles and incompatible sequences
// exclude an order.
func (e *Engine) orderSuitsVehicle(v *model.Vehicle, o *model.TransportOrder) bool {
	if rv, ok := e.reservations.VehicleFor(o.Name); ok && rv != v.Name {
		return false
	}
	if o.IntendedVehicle != "" && o.IntendedVehicle != v.Name {
		return false
	}
	if o.WrappingSequence == "" {
		return v.OrderSequence == ""
	}
	seq, err := e.registry.OrderSequence(o.WrappingSequence)
	if err != nil {
		e.log.Errorf("order %s references unknown sequence %s", o.Name, o.WrappingSequence)
		return false
	}
	if seq.ProcessingVehicle != "" && seq.ProcessingVehicle != v.Name {
		return false
	}
	if seq.IntendedVehicle != "" && seq.IntendedVehicle != v.Name {
		return false
	}
	return v.OrderSequence == "" || v.OrderSequence == o.WrappingSequence
}

// mandatoryOrder reports whether the order must not be deferred for
// recharging. An order is mandatory when its sequence already has a
// processing vehicle. Deliberately, it is not checked whether that vehicle
// is the one being dispatched; this mirrors long-standing behavior that
// integrations rely on.
func (e *Engine) mandatoryOrder(o *model.TransportOrder) bool {
	if o == nil || o.WrappingSequence == "" {
		return false
	}
	seq, err := e.registry.OrderSequence(o.WrappingSequence)
	if err != nil {
		return false
	}
	return seq.ProcessingVehicle != ""
}

// continueOrder advances a vehicle awaiting the next leg of its current
// order. Legs that require no movement are skipped; the final leg's
// completion finishes the order.
func (e *Engine) continueOrder(v *model.Vehicle, o *model.TransportOrder) {
	if o.State != model.OrderBeingProcessed {
		e.log.Debugf("vehicle %s awaiting order but order %s is %s", v.Name, o.Name, o.State)
		return
	}
	next := o.CurrentDriveOrder + 1
	if next >= len(o.DriveOrders) {
		e.finishOrder(v, o)
		return
	}
	if o.Route == nil || next >= len(o.Route.Legs) {
		e.log.Errorf("order %s has no route for leg %d", o.Name, next)
		return
	}
	leg := o.Route.Legs[next]
	if leg.Destination == v.Position {
		// Nothing to drive; take the next leg in a fresh cycle.
		if err := e.registry.SetOrderCurrentDriveOrder(o.Name, next); err != nil {
			e.log.Errorf("advancing order %s: %v", o.Name, err)
			return
		}
		e.enqueueVehicle(v.Name)
		return
	}
	if err := e.scheduler.Reserve(v.Name, leg); err != nil {
		// The index stays put; the vehicle is re-enqueued when the
		// holder releases its resources, or by its next driver report.
		e.log.Warnf("resources for vehicle %s leg %d unavailable: %v", v.Name, next, err)
		return
	}
	if err := e.registry.SetOrderCurrentDriveOrder(o.Name, next); err != nil {
		e.log.Errorf("advancing order %s: %v", o.Name, err)
		e.scheduler.Release(v.Name)
		return
	}
	if err := e.registry.SetVehicleProcState(v.Name, model.ProcProcessingOrder); err != nil {
		e.log.Errorf("updating vehicle %s: %v", v.Name, err)
		return
	}
	if err := e.controllers.ControllerFor(v.Name).SetDriveOrder(o.DriveOrders[next], o.Properties); err != nil {
		e.log.Errorf("forwarding leg %d of order %s to vehicle %s: %v", next, o.Name, v.Name, err)
		e.scheduler.Release(v.Name)
		_ = e.registry.SetVehicleProcState(v.Name, model.ProcAwaitingOrder)
	}
}

// finishOrder completes the vehicle's current order and frees the vehicle.
func (e *Engine) finishOrder(v *model.Vehicle, o *model.TransportOrder) {
	e.log.Infof("vehicle %s finished order %s", v.Name, o.Name)
	if err := e.registry.SetOrderState(o.Name, model.OrderFinished); err != nil {
		e.log.Errorf("finishing order %s: %v", o.Name, err)
		return
	}
	_ = e.registry.SetVehicleOrder(v.Name, "")
	_ = e.registry.SetVehicleProcState(v.Name, model.ProcIdle)
	e.router.ReleaseRoute(v.Name)
	e.scheduler.Release(v.Name)
	// The freed vehicle may pick up new work right away.
	e.enqueueVehicle(v.Name)
	e.wakeAwaitingVehicles(v.Name)
}

// wakeAwaitingVehicles re-enqueues vehicles stuck between legs of their
// order. Their next leg may have been blocked on resources that were just
// released.
func (e *Engine) wakeAwaitingVehicles(except string) {
	for _, w := range e.registry.Vehicles() {
		if w.Name == except {
			continue
		}
		if w.ProcState == model.ProcAwaitingOrder && w.TransportOrder != "" {
			e.enqueueVehicle(w.Name)
		}
	}
}

// atParkingPosition reports whether the vehicle stands on a parking point.
func (e *Engine) atParkingPosition(v *model.Vehicle) bool {
	p, err := e.registry.Point(v.Position)
	return err == nil && p.Type == model.PointPark
}
