// Package registry provides the in-memory object store for vehicles,
// transport orders, order sequences and the plant model. The dispatch
// engine mutates objects exclusively through the single-object setters;
// every accessor returns a snapshot so callers never share mutable state
// with the store.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/openagv/fleetkernel/core/model"
)

// ErrNotFound is returned when a named object does not exist.
var ErrNotFound = errors.New("object not found")

// MemoryRegistry is the default Registry implementation.
type MemoryRegistry struct {
	mu        sync.RWMutex
	vehicles  map[string]*model.Vehicle
	orders    map[string]*model.TransportOrder
	orderSeq  map[string]int // insertion sequence, pool priority
	nextSeq   int
	sequences map[string]*model.OrderSequence
	points    map[string]*model.Point
	paths     map[string]*model.Path
	locations map[string]*model.Location
}

// New creates an empty MemoryRegistry.
func New() *MemoryRegistry {
	return &MemoryRegistry{
		vehicles:  make(map[string]*model.Vehicle),
		orders:    make(map[string]*model.TransportOrder),
		orderSeq:  make(map[string]int),
		sequences: make(map[string]*model.OrderSequence),
		points:    make(map[string]*model.Point),
		paths:     make(map[string]*model.Path),
		locations: make(map[string]*model.Location),
	}
}

// AddVehicle stores the vehicle. Adding a vehicle twice is an error.
func (r *MemoryRegistry) AddVehicle(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.Name]; ok {
		return fmt.Errorf("vehicle %s already exists", v.Name)
	}
	r.vehicles[v.Name] = &v
	return nil
}

// AddSequence stores the order sequence.
func (r *MemoryRegistry) AddSequence(s model.OrderSequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sequences[s.Name]; ok {
		return fmt.Errorf("sequence %s already exists", s.Name)
	}
	r.sequences[s.Name] = &s
	return nil
}

// AddPoint stores a plant-model point.
func (r *MemoryRegistry) AddPoint(p model.Point) {
	r.mu.Lock()
	r.points[p.Name] = &p
	r.mu.Unlock()
}

// AddPath stores a plant-model path.
func (r *MemoryRegistry) AddPath(p model.Path) {
	r.mu.Lock()
	r.paths[p.Name] = &p
	r.mu.Unlock()
}

// AddLocation stores a plant-model location.
func (r *MemoryRegistry) AddLocation(l model.Location) {
	r.mu.Lock()
	r.locations[l.Name] = &l
	r.mu.Unlock()
}

// CreateOrder stores a new transport order. The order keeps its given
// state; a negative CurrentDriveOrder marks it as not yet assigned.
func (r *MemoryRegistry) CreateOrder(o *model.TransportOrder) error {
	if o == nil || o.Name == "" {
		return fmt.Errorf("order must have a name")
	}
	if len(o.DriveOrders) == 0 {
		return fmt.Errorf("order %s has no drive orders", o.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.Name]; ok {
		return fmt.Errorf("order %s already exists", o.Name)
	}
	cp := cloneOrder(o)
	if cp.CurrentDriveOrder == 0 && cp.State != model.OrderBeingProcessed {
		cp.CurrentDriveOrder = -1
	}
	r.orders[o.Name] = cp
	r.orderSeq[o.Name] = r.nextSeq
	r.nextSeq++
	return nil
}

// Vehicle returns a snapshot of the named vehicle.
func (r *MemoryRegistry) Vehicle(name string) (*model.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[name]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", name, ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

// Vehicles returns snapshots of all vehicles ordered by name. The stable
// order makes candidate enumeration, and with it cost tie-breaking,
// deterministic.
func (r *MemoryRegistry) Vehicles() []*model.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TransportOrder returns a snapshot of the named order.
func (r *MemoryRegistry) TransportOrder(name string) (*model.TransportOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[name]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", name, ErrNotFound)
	}
	return cloneOrder(o), nil
}

// DispatchableOrders returns snapshots of all orders in state DISPATCHABLE
// in creation order. Creation order is the pool's priority order.
func (r *MemoryRegistry) DispatchableOrders() []*model.TransportOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.TransportOrder
	for _, o := range r.orders {
		if o.State == model.OrderDispatchable {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.orderSeq[out[i].Name] < r.orderSeq[out[j].Name]
	})
	return out
}

// OrderSequence returns a snapshot of the named sequence.
func (r *MemoryRegistry) OrderSequence(name string) (*model.OrderSequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sequences[name]
	if !ok {
		return nil, fmt.Errorf("sequence %s: %w", name, ErrNotFound)
	}
	cp := *s
	cp.Orders = append([]string(nil), s.Orders...)
	return &cp, nil
}

// Point returns a snapshot of the named point.
func (r *MemoryRegistry) Point(name string) (*model.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.points[name]
	if !ok {
		return nil, fmt.Errorf("point %s: %w", name, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// Points returns all plant points ordered by name.
func (r *MemoryRegistry) Points() []*model.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Point, 0, len(r.points))
	for _, p := range r.points {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Paths returns all plant paths ordered by name.
func (r *MemoryRegistry) Paths() []*model.Path {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Path, 0, len(r.paths))
	for _, p := range r.paths {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Location returns a snapshot of the named location.
func (r *MemoryRegistry) Location(name string) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[name]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	cp := *l
	cp.Operations = append([]string(nil), l.Operations...)
	return &cp, nil
}

// Locations returns all plant locations ordered by name.
func (r *MemoryRegistry) Locations() []*model.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Location, 0, len(r.locations))
	for _, l := range r.locations {
		cp := *l
		cp.Operations = append([]string(nil), l.Operations...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetVehicleProcState updates the vehicle's processing state.
func (r *MemoryRegistry) SetVehicleProcState(name string, s model.ProcState) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.ProcState = s })
}

// SetVehicleState updates the vehicle's physical state.
func (r *MemoryRegistry) SetVehicleState(name string, s model.VehicleState) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.State = s })
}

// SetVehiclePosition updates the vehicle's current position.
func (r *MemoryRegistry) SetVehiclePosition(name, point string) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.Position = point })
}

// SetVehicleEnergyLevel updates the vehicle's energy level.
func (r *MemoryRegistry) SetVehicleEnergyLevel(name string, level int) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.EnergyLevel = level })
}

// SetVehicleOrder wires the vehicle to a transport order. An empty order
// name clears the linkage.
func (r *MemoryRegistry) SetVehicleOrder(name, order string) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.TransportOrder = order })
}

// SetVehicleSequence wires the vehicle to an order sequence.
func (r *MemoryRegistry) SetVehicleSequence(name, sequence string) error {
	return r.mutateVehicle(name, func(v *model.Vehicle) { v.OrderSequence = sequence })
}

// SetOrderState updates the order's lifecycle state.
func (r *MemoryRegistry) SetOrderState(name string, s model.OrderState) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) { o.State = s })
}

// SetOrderProcessingVehicle records the vehicle executing the order.
func (r *MemoryRegistry) SetOrderProcessingVehicle(name, vehicle string) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) { o.ProcessingVehicle = vehicle })
}

// SetOrderIntendedVehicle restricts the order to the named vehicle.
func (r *MemoryRegistry) SetOrderIntendedVehicle(name, vehicle string) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) { o.IntendedVehicle = vehicle })
}

// SetOrderRoute attaches the computed route to the order.
func (r *MemoryRegistry) SetOrderRoute(name string, route *model.Route) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) { o.Route = route })
}

// SetOrderCurrentDriveOrder updates the index of the leg being executed.
func (r *MemoryRegistry) SetOrderCurrentDriveOrder(name string, idx int) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) { o.CurrentDriveOrder = idx })
}

// AppendRejection appends to the order's rejection audit trail.
func (r *MemoryRegistry) AppendRejection(name string, rej model.Rejection) error {
	return r.mutateOrder(name, func(o *model.TransportOrder) {
		o.Rejections = append(o.Rejections, rej)
	})
}

// SetSequenceProcessingVehicle records the vehicle processing the sequence.
func (r *MemoryRegistry) SetSequenceProcessingVehicle(name, vehicle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sequences[name]
	if !ok {
		return fmt.Errorf("sequence %s: %w", name, ErrNotFound)
	}
	s.ProcessingVehicle = vehicle
	return nil
}

func (r *MemoryRegistry) mutateVehicle(name string, fn func(*model.Vehicle)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[name]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", name, ErrNotFound)
	}
	fn(v)
	return nil
}

func (r *MemoryRegistry) mutateOrder(name string, fn func(*model.TransportOrder)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[name]
	if !ok {
		return fmt.Errorf("order %s: %w", name, ErrNotFound)
	}
	fn(o)
	return nil
}

func cloneOrder(o *model.TransportOrder) *model.TransportOrder {
	cp := *o
	cp.DriveOrders = append([]model.DriveOrder(nil), o.DriveOrders...)
	cp.Rejections = append([]model.Rejection(nil), o.Rejections...)
	return &cp
}
