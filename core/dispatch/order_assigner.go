package dispatch

import (
	"errors"
	"time"

	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
)

type candidate struct {
	vehicle *model.Vehicle
	route   *model.Route
}

// assignOrder handles an order-became-dispatchable event: it picks the
// cheapest available vehicle and either assigns immediately or reserves
// the order and preempts the vehicle's current dispensable order.
func (e *Engine) assignOrder(name string) {
	o, err := e.registry.TransportOrder(name)
	if err != nil {
		e.log.Errorf("order event for unknown order %s: %v", name, err)
		return
	}
	if o.State != model.OrderDispatchable {
		e.log.Debugf("order %s no longer dispatchable (%s)", o.Name, o.State)
		return
	}
	if v, ok := e.reservations.VehicleFor(o.Name); ok {
		e.log.Debugf("order %s already reserved for vehicle %s", o.Name, v)
		return
	}

	var best *candidate
	for _, v := range e.orderCandidates(o) {
		route, ok := e.checkCandidate(v, o)
		if !ok {
			continue
		}
		// Strict comparison keeps the first-found candidate on cost ties.
		if best == nil || route.Cost() < best.route.Cost() {
			best = &candidate{vehicle: v, route: route}
		}
	}
	if best == nil {
		e.log.Infof("no vehicle for order %s", o.Name)
		e.record(logging.Record{Outcome: logging.OutcomeNoCandidate, Order: o.Name})
		return
	}

	v := best.vehicle
	if v.TransportOrder == "" {
		e.assignTransportOrder(v, o, best.route)
		return
	}
	// The winner still processes a dispensable order: reserve and preempt.
	if !e.reservations.Reserve(o.Name, v.Name) {
		e.log.Warnf("vehicle %s already reserved, leaving order %s in pool", v.Name, o.Name)
		return
	}
	e.log.Infof("reserving order %s for vehicle %s, withdrawing order %s",
		o.Name, v.Name, v.TransportOrder)
	e.publish(events.ReservationEvent{Order: o.Name, Vehicle: v.Name})
	e.record(logging.Record{Outcome: logging.OutcomeReserved, Order: o.Name, Vehicle: v.Name})
	e.abortOrder(v.Name, false)
}

// orderCandidates computes the vehicles eligible for the order. An
// intended vehicle (on the order, or via its sequence) restricts the set
// to that single vehicle.
func (e *Engine) orderCandidates(o *model.TransportOrder) []*model.Vehicle {
	var seq *model.OrderSequence
	if o.WrappingSequence != "" {
		var err error
		seq, err = e.registry.OrderSequence(o.WrappingSequence)
		if err != nil {
			e.log.Errorf("order %s references unknown sequence %s", o.Name, o.WrappingSequence)
			return nil
		}
	}
	intended := o.IntendedVehicle
	if seq != nil {
		if seq.ProcessingVehicle != "" {
			intended = seq.ProcessingVehicle
		} else if intended == "" {
			intended = seq.IntendedVehicle
		}
	}
	if intended != "" {
		v, err := e.registry.Vehicle(intended)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				e.log.Errorf("order %s intends unknown vehicle %s", o.Name, intended)
			} else {
				e.log.Errorf("vehicle lookup %s: %v", intended, err)
			}
			return nil
		}
		if e.availableForOrder(v, o) {
			return []*model.Vehicle{v}
		}
		return nil
	}
	var out []*model.Vehicle
	for _, v := range e.registry.Vehicles() {
		if e.availableForOrder(v, o) {
			out = append(out, v)
		}
	}
	return out
}

// availableForOrder is the availability test of the matching algorithm: a
// vehicle with a known position that is either idle or preemptable, is in
// an acceptable physical state, and is sequence-compatible with the order.
func (e *Engine) availableForOrder(v *model.Vehicle, o *model.TransportOrder) bool {
	if !v.PositionKnown() {
		return false
	}
	if v.OrderSequence != "" && v.OrderSequence != o.WrappingSequence {
		return false
	}
	preemptable := e.processesDispensableOrder(v)
	switch {
	case v.ProcState == model.ProcIdle:
	case preemptable:
	default:
		return false
	}
	switch {
	case v.State == model.StateIdle:
	case v.State == model.StateCharging && !v.EnergyCritical():
	case preemptable:
	default:
		return false
	}
	return true
}

// processesDispensableOrder reports whether the vehicle runs an order that
// may be preempted: it must be processing, the order must be dispensable
// and no reservation may already target the vehicle.
func (e *Engine) processesDispensableOrder(v *model.Vehicle) bool {
	if v.ProcState != model.ProcProcessingOrder || v.TransportOrder == "" {
		return false
	}
	if _, reserved := e.reservations.OrderFor(v.Name); reserved {
		return false
	}
	cur, err := e.registry.TransportOrder(v.TransportOrder)
	if err != nil {
		e.log.Errorf("vehicle %s references unknown order %s", v.Name, v.TransportOrder)
		return false
	}
	return cur.Dispensable
}

// checkCandidate runs the router and controller checks for one
// vehicle/order pairing, recording a rejection on failure.
func (e *Engine) checkCandidate(v *model.Vehicle, o *model.TransportOrder) (*model.Route, bool) {
	route, ok := e.router.ComputeRoute(v, v.Position, o)
	if !ok {
		e.rejectCandidate(o.Name, v.Name, model.ReasonUnroutable, causeUnroutable)
		return nil, false
	}
	can, reason := e.controllers.ControllerFor(v.Name).CanProcess(o.Operations())
	if !can {
		e.rejectCandidate(o.Name, v.Name, reason, causeController)
		return nil, false
	}
	return route, true
}

func (e *Engine) rejectCandidate(order, vehicle, reason, cause string) {
	rej := model.Rejection{Vehicle: vehicle, Reason: reason, Time: time.Now()}
	if err := e.registry.AppendRejection(order, rej); err != nil {
		e.log.Errorf("recording rejection for order %s: %v", order, err)
	}
	orderRejections.WithLabelValues(cause).Inc()
	e.log.Debugf("order %s rejected by vehicle %s: %s", order, vehicle, reason)
}
