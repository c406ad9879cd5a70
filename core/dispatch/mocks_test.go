package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
	"github.com/openagv/fleetkernel/infra/logger"
	"github.com/openagv/fleetkernel/internal/eventbus"
)

// fakeRouter computes routes from a cost table keyed "from->to". Pairs
// listed in unroutable fail; unknown pairs cost defaultCost.
type fakeRouter struct {
	mu          sync.Mutex
	costs       map[string]int64
	unroutable  map[string]bool
	defaultCost int64
	committed   map[string]*model.Route
	released    []string
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		costs:       make(map[string]int64),
		unroutable:  make(map[string]bool),
		defaultCost: 10,
		committed:   make(map[string]*model.Route),
	}
}

func (r *fakeRouter) ComputeRoute(_ *model.Vehicle, from string, o *model.TransportOrder) (*model.Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := &model.Route{}
	prev := from
	for _, do := range o.DriveOrders {
		key := prev + "->" + do.Destination
		if r.unroutable[key] {
			return nil, false
		}
		cost := r.defaultCost
		if c, ok := r.costs[key]; ok {
			cost = c
		}
		points := []string{prev, do.Destination}
		if do.Destination == prev {
			points = []string{prev}
			cost = 0
		}
		route.Legs = append(route.Legs, model.RouteLeg{
			Points:      points,
			Destination: do.Destination,
			Cost:        cost,
		})
		prev = do.Destination
	}
	return route, true
}

func (r *fakeRouter) CommitRoute(vehicle string, route *model.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed[vehicle] = route
}

func (r *fakeRouter) ReleaseRoute(vehicle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.committed, vehicle)
	r.released = append(r.released, vehicle)
}

// fakeScheduler records reservations and can be told to refuse a vehicle.
type fakeScheduler struct {
	mu         sync.Mutex
	reserveErr map[string]error
	reserved   []string
	released   []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{reserveErr: make(map[string]error)}
}

func (s *fakeScheduler) Reserve(vehicle string, leg model.RouteLeg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserveErr[vehicle]; err != nil {
		return err
	}
	s.reserved = append(s.reserved, vehicle+":"+leg.Destination)
	return nil
}

func (s *fakeScheduler) Release(vehicle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, vehicle)
}

// fakeController records the commands forwarded to a vehicle.
type fakeController struct {
	mu      sync.Mutex
	refuse  bool
	reason  string
	setErr  error
	orders  []model.DriveOrder
	aborts  int
	cleared int
}

func (c *fakeController) CanProcess([]string) (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse {
		return false, c.reason
	}
	return true, ""
}

func (c *fakeController) SetDriveOrder(do model.DriveOrder, _ map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.orders = append(c.orders, do)
	return nil
}

func (c *fakeController) AbortDriveOrder() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborts++
}

func (c *fakeController) ClearCommandQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
}

func (c *fakeController) sentOrders() []model.DriveOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.DriveOrder(nil), c.orders...)
}

func (c *fakeController) abortCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aborts
}

// fakeControllerPool hands out one fakeController per vehicle, creating a
// cooperative one on first use.
type fakeControllerPool struct {
	mu    sync.Mutex
	ctrls map[string]*fakeController
}

func newFakeControllerPool() *fakeControllerPool {
	return &fakeControllerPool{ctrls: make(map[string]*fakeController)}
}

func (p *fakeControllerPool) ControllerFor(vehicle string) VehicleController {
	return p.controller(vehicle)
}

func (p *fakeControllerPool) controller(vehicle string) *fakeController {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.ctrls[vehicle]
	if !ok {
		c = &fakeController{}
		p.ctrls[vehicle] = c
	}
	return c
}

type fixture struct {
	reg    *registry.MemoryRegistry
	router *fakeRouter
	sched  *fakeScheduler
	pool   *fakeControllerPool
	bus    *eventbus.Bus
	engine *Engine
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	fx := &fixture{
		reg:    registry.New(),
		router: newFakeRouter(),
		sched:  newFakeScheduler(),
		pool:   newFakeControllerPool(),
		bus:    eventbus.New(),
	}
	e, err := NewEngine(fx.reg, fx.router, fx.sched, fx.pool, nil, nil, cfg, fx.bus, logger.NopLogger{})
	require.NoError(t, err)
	fx.engine = e
	t.Cleanup(fx.bus.Close)
	return fx
}

func (fx *fixture) addVehicle(t *testing.T, v model.Vehicle) {
	t.Helper()
	if v.State == model.StateUnknown {
		v.State = model.StateIdle
	}
	if v.EnergyLevel == 0 {
		v.EnergyLevel = 90
	}
	if v.EnergyLevelGood == 0 {
		v.EnergyLevelCritical, v.EnergyLevelGood = 20, 60
	}
	require.NoError(t, fx.reg.AddVehicle(v))
}

func (fx *fixture) addOrder(t *testing.T, o model.TransportOrder) {
	t.Helper()
	if o.State == model.OrderRaw {
		o.State = model.OrderDispatchable
	}
	require.NoError(t, fx.reg.CreateOrder(&o))
}

func transportTo(name, dest string) model.TransportOrder {
	return model.TransportOrder{
		Name:        name,
		State:       model.OrderDispatchable,
		DriveOrders: []model.DriveOrder{{Destination: dest, Operation: model.OpNop}},
	}
}

func (fx *fixture) vehicle(t *testing.T, name string) *model.Vehicle {
	t.Helper()
	v, err := fx.reg.Vehicle(name)
	require.NoError(t, err)
	return v
}

func (fx *fixture) order(t *testing.T, name string) *model.TransportOrder {
	t.Helper()
	o, err := fx.reg.TransportOrder(name)
	require.NoError(t, err)
	return o
}
