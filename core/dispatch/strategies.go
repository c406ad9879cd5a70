package dispatch

import (
	"github.com/openagv/fleetkernel/core/model"
)

// ClosestParkingStrategy picks the unoccupied parking point with the
// cheapest route from the vehicle's current position.
type ClosestParkingStrategy struct {
	Registry Registry
	Router   Router
}

// SelectParkingPoint implements ParkingStrategy.
func (s ClosestParkingStrategy) SelectParkingPoint(v *model.Vehicle) (string, bool) {
	occupied := make(map[string]struct{})
	for _, other := range s.Registry.Vehicles() {
		if other.Name != v.Name && other.Position != "" {
			occupied[other.Position] = struct{}{}
		}
	}
	var bestName string
	var bestCost int64
	found := false
	for _, p := range s.Registry.Points() {
		if p.Type != model.PointPark || p.Name == v.Position {
			continue
		}
		if _, taken := occupied[p.Name]; taken {
			continue
		}
		probe := &model.TransportOrder{
			DriveOrders: []model.DriveOrder{{Destination: p.Name, Operation: model.OpPark}},
		}
		route, ok := s.Router.ComputeRoute(v, v.Position, probe)
		if !ok {
			continue
		}
		if !found || route.Cost() < bestCost {
			bestName, bestCost, found = p.Name, route.Cost(), true
		}
	}
	return bestName, found
}

// FirstRechargeStrategy returns the first reachable location offering the
// recharge operation, in the registry's stable location order.
type FirstRechargeStrategy struct {
	Registry Registry
	Router   Router
}

// SelectRechargeLocation implements RechargeStrategy.
func (s FirstRechargeStrategy) SelectRechargeLocation(v *model.Vehicle) (string, bool) {
	for _, l := range s.Registry.Locations() {
		if !l.Supports(model.OpRecharge) {
			continue
		}
		probe := &model.TransportOrder{
			DriveOrders: []model.DriveOrder{{Destination: l.Name, Operation: model.OpRecharge}},
		}
		if _, ok := s.Router.ComputeRoute(v, v.Position, probe); ok {
			return l.Name, true
		}
	}
	return "", false
}
