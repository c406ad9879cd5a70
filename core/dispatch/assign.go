package dispatch

import (
	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
)

// assignTransportOrder commits an order to a vehicle: states and
// cross-references are wired, the route is committed, and the first leg is
// either forwarded to the vehicle's controller or, if it needs no
// movement, skipped so the vehicle is immediately re-dispatched.
func (e *Engine) assignTransportOrder(v *model.Vehicle, o *model.TransportOrder, route *model.Route) {
	e.log.Infof("assigning order %s to vehicle %s (cost %d)", o.Name, v.Name, route.Cost())

	// Consume whatever reservations involve the pairing.
	e.reservations.RemoveOrder(o.Name)
	e.reservations.RemoveVehicle(v.Name)

	if err := e.registry.SetVehicleProcState(v.Name, model.ProcProcessingOrder); err != nil {
		e.log.Errorf("assigning order %s: %v", o.Name, err)
		return
	}
	_ = e.registry.SetVehicleOrder(v.Name, o.Name)
	_ = e.registry.SetOrderState(o.Name, model.OrderBeingProcessed)
	_ = e.registry.SetOrderProcessingVehicle(o.Name, v.Name)
	_ = e.registry.SetOrderRoute(o.Name, route)
	_ = e.registry.SetOrderCurrentDriveOrder(o.Name, 0)
	if o.WrappingSequence != "" {
		_ = e.registry.SetSequenceProcessingVehicle(o.WrappingSequence, v.Name)
		_ = e.registry.SetVehicleSequence(v.Name, o.WrappingSequence)
	}
	e.router.CommitRoute(v.Name, route)

	leg := route.Legs[0]
	if leg.Destination == v.Position {
		// The first leg needs no movement; awaiting state re-enters the
		// dispatch cycle so the vehicle continues with its further legs.
		_ = e.registry.SetVehicleProcState(v.Name, model.ProcAwaitingOrder)
		e.enqueueVehicle(v.Name)
	} else {
		if err := e.scheduler.Reserve(v.Name, leg); err != nil {
			e.log.Warnf("resources for order %s unavailable: %v", o.Name, err)
			e.unwindAssignment(v, o)
			return
		}
		if err := e.controllers.ControllerFor(v.Name).SetDriveOrder(o.DriveOrders[0], o.Properties); err != nil {
			e.log.Errorf("forwarding order %s to vehicle %s: %v", o.Name, v.Name, err)
			e.scheduler.Release(v.Name)
			e.unwindAssignment(v, o)
			return
		}
	}

	kind := orderKind(o)
	ordersAssigned.WithLabelValues(kind).Inc()
	e.publish(events.OrderAssignedEvent{Order: o.Name, Vehicle: v.Name, Kind: kind, Cost: route.Cost()})
	e.record(logging.Record{Outcome: logging.OutcomeAssigned, Order: o.Name, Vehicle: v.Name, Cost: route.Cost(), Detail: kind})
}

// unwindAssignment releases the commitments made during an assignment that
// failed halfway, leaving order and vehicle as they were before.
func (e *Engine) unwindAssignment(v *model.Vehicle, o *model.TransportOrder) {
	e.router.ReleaseRoute(v.Name)
	_ = e.registry.SetOrderState(o.Name, model.OrderDispatchable)
	_ = e.registry.SetOrderProcessingVehicle(o.Name, "")
	_ = e.registry.SetOrderRoute(o.Name, nil)
	_ = e.registry.SetOrderCurrentDriveOrder(o.Name, -1)
	_ = e.registry.SetVehicleOrder(v.Name, "")
	_ = e.registry.SetVehicleProcState(v.Name, model.ProcIdle)
}

// orderKind classifies an order by the operation of its final leg.
func orderKind(o *model.TransportOrder) string {
	if n := len(o.DriveOrders); n > 0 {
		switch o.DriveOrders[n-1].Operation {
		case model.OpRecharge:
			return events.KindRecharge
		case model.OpPark:
			return events.KindParking
		}
	}
	return events.KindTransport
}
