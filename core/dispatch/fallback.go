package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
)

// createRechargeOrder synthesizes a recharge order for the vehicle and
// assigns it. It reports whether an order was created. Recharge orders for
// a critically discharged vehicle are not dispensable, so they cannot be
// preempted.
func (e *Engine) createRechargeOrder(v *model.Vehicle) bool {
	if e.recharge == nil {
		e.log.Warnf("recharging enabled but no recharge strategy configured")
		return false
	}
	loc, ok := e.recharge.SelectRechargeLocation(v)
	if !ok {
		e.log.Infof("no recharge location for vehicle %s", v.Name)
		e.publish(events.IdleFallbackEvent{Vehicle: v.Name, Kind: events.KindRecharge})
		return false
	}
	name := fmt.Sprintf("Recharge-%s", uuid.NewString())
	o := &model.TransportOrder{
		Name:            name,
		DriveOrders:     []model.DriveOrder{{Destination: loc, Operation: model.OpRecharge}},
		State:           model.OrderDispatchable,
		IntendedVehicle: v.Name,
		Dispensable:     !v.EnergyCritical(),
		Created:         time.Now(),
	}
	return e.assignSynthesized(v, o, events.KindRecharge)
}

// createParkingOrder synthesizes a parking order for the vehicle and
// assigns it. Parking orders are always dispensable.
func (e *Engine) createParkingOrder(v *model.Vehicle) bool {
	if e.parking == nil {
		e.log.Warnf("parking enabled but no parking strategy configured")
		return false
	}
	point, ok := e.parking.SelectParkingPoint(v)
	if !ok {
		e.log.Infof("no parking point for vehicle %s", v.Name)
		e.publish(events.IdleFallbackEvent{Vehicle: v.Name, Kind: events.KindParking})
		return false
	}
	name := fmt.Sprintf("Park-%s", uuid.NewString())
	o := &model.TransportOrder{
		Name:            name,
		DriveOrders:     []model.DriveOrder{{Destination: point, Operation: model.OpPark}},
		State:           model.OrderDispatchable,
		IntendedVehicle: v.Name,
		Dispensable:     true,
		Created:         time.Now(),
	}
	return e.assignSynthesized(v, o, events.KindParking)
}

// assignSynthesized stores the synthesized order and runs it through the
// same route and processability checks as any other candidate pairing. A
// refusal by the vehicle fails the order; that is an expected outcome, not
// an error.
func (e *Engine) assignSynthesized(v *model.Vehicle, o *model.TransportOrder, kind string) bool {
	if err := e.registry.CreateOrder(o); err != nil {
		e.log.Errorf("creating %s order for vehicle %s: %v", kind, v.Name, err)
		return false
	}
	route, ok := e.checkCandidate(v, o)
	if !ok {
		_ = e.registry.SetOrderState(o.Name, model.OrderFailed)
		e.log.Infof("vehicle %s refused %s order %s", v.Name, kind, o.Name)
		e.publish(events.IdleFallbackEvent{Vehicle: v.Name, Kind: kind, Order: o.Name})
		return false
	}
	e.publish(events.IdleFallbackEvent{Vehicle: v.Name, Kind: kind, Order: o.Name, Created: true})
	e.assignTransportOrder(v, o, route)
	return true
}
