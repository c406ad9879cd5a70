package dispatch

import "sync"

// reservationTable tracks transient order-to-vehicle bindings recorded when
// a better-fitting vehicle must first finish or abort its current order.
// Invariant: a vehicle is the target of at most one reservation. The table
// is only touched by the engine's worker; the mutex exists for the external
// diagnostics snapshot.
type reservationTable struct {
	mu        sync.Mutex
	byOrder   map[string]string
	byVehicle map[string]string
}

func newReservationTable() *reservationTable {
	return &reservationTable{
		byOrder:   make(map[string]string),
		byVehicle: make(map[string]string),
	}
}

// Reserve binds the order to the vehicle. It reports false when the vehicle
// is already the target of another reservation.
func (t *reservationTable) Reserve(order, vehicle string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, taken := t.byVehicle[vehicle]; taken {
		return false
	}
	if old, ok := t.byOrder[order]; ok {
		delete(t.byVehicle, old)
	}
	t.byOrder[order] = vehicle
	t.byVehicle[vehicle] = order
	return true
}

// VehicleFor returns the vehicle an order is reserved for.
func (t *reservationTable) VehicleFor(order string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.byOrder[order]
	return v, ok
}

// OrderFor returns the order reserved for a vehicle.
func (t *reservationTable) OrderFor(vehicle string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.byVehicle[vehicle]
	return o, ok
}

// RemoveOrder drops the reservation of the given order, if any.
func (t *reservationTable) RemoveOrder(order string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.byOrder[order]; ok {
		delete(t.byOrder, order)
		delete(t.byVehicle, v)
	}
}

// RemoveVehicle drops the reservation targeting the given vehicle, if any.
func (t *reservationTable) RemoveVehicle(vehicle string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if o, ok := t.byVehicle[vehicle]; ok {
		delete(t.byVehicle, vehicle)
		delete(t.byOrder, o)
	}
}

// Snapshot returns a copy of the order-to-vehicle bindings for diagnostics.
func (t *reservationTable) Snapshot() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make(map[string]string, len(t.byOrder))
	for o, v := range t.byOrder {
		cp[o] = v
	}
	return cp
}
