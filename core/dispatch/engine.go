// Package dispatch contains the kernel's dispatch engine: a strictly
// serialized event processor that matches transport orders to vehicles,
// handles withdrawals and falls back to parking or recharging when a
// vehicle has nothing to do. All vehicle and order mutation happens on the
// engine's single worker goroutine; callers only enqueue events.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/core/logger"
	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/internal/eventbus"
)

// Engine is the dispatch engine. Create it with NewEngine, then Start it.
type Engine struct {
	registry    Registry
	router      Router
	scheduler   ResourceScheduler
	controllers ControllerPool
	parking     ParkingStrategy
	recharge    RechargeStrategy
	cfg         Config
	bus         eventbus.EventBus
	log         logger.Logger

	mu      sync.Mutex
	queue   []model.Dispatchable
	wake    chan struct{}
	quit    chan struct{}
	running bool
	store   logging.LogStore

	wg sync.WaitGroup

	reservations *reservationTable
	// toDisable remembers vehicles whose withdrawal should end in
	// UNAVAILABLE. Worker-only.
	toDisable map[string]struct{}
}

// NewEngine creates a dispatch engine. The strategies may be nil; the
// corresponding fallback then never produces an order.
func NewEngine(reg Registry, router Router, scheduler ResourceScheduler, controllers ControllerPool,
	parking ParkingStrategy, recharge RechargeStrategy, cfg Config, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if reg == nil || router == nil || scheduler == nil || controllers == nil {
		return nil, fmt.Errorf("dispatch: nil collaborator provided to NewEngine")
	}
	if log == nil {
		return nil, fmt.Errorf("dispatch: nil logger provided to NewEngine")
	}
	return &Engine{
		registry:     reg,
		router:       router,
		scheduler:    scheduler,
		controllers:  controllers,
		parking:      parking,
		recharge:     recharge,
		cfg:          cfg,
		bus:          bus,
		log:          log,
		wake:         make(chan struct{}, 1),
		reservations: newReservationTable(),
		toDisable:    make(map[string]struct{}),
	}, nil
}

// SetLogStore configures the store used to persist dispatch decisions.
func (e *Engine) SetLogStore(store logging.LogStore) {
	e.mu.Lock()
	e.store = store
	e.mu.Unlock()
}

// Start launches the worker goroutine. Starting a running engine is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.quit = make(chan struct{})
	e.mu.Unlock()
	e.wg.Add(1)
	go e.run()
}

// Stop terminates the worker. The event being processed finishes first;
// events still queued are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.quit)
	e.mu.Unlock()
	e.wg.Wait()
}

// DispatchVehicle announces that a vehicle may take new work. Events that
// do not meet the dispatchability precondition are dropped silently: the
// caller reports state changes, it does not know whether they matter.
func (e *Engine) DispatchVehicle(v *model.Vehicle) {
	if v == nil {
		return
	}
	if !v.PositionKnown() {
		e.log.Debugf("ignoring vehicle %s: position unknown", v.Name)
		return
	}
	if v.ProcState != model.ProcIdle && v.ProcState != model.ProcAwaitingOrder {
		e.log.Debugf("ignoring vehicle %s: proc state %s", v.Name, v.ProcState)
		return
	}
	if v.ProcState == model.ProcIdle && v.State == model.StateCharging && v.EnergyCritical() {
		e.log.Debugf("ignoring vehicle %s: charging with critical energy", v.Name)
		return
	}
	e.enqueueVehicle(v.Name)
}

// DispatchOrder announces that a transport order became dispatchable. A
// caller passing an order in any other state has a state machine bug; the
// violation is returned as an error instead of being swallowed.
func (e *Engine) DispatchOrder(o *model.TransportOrder) error {
	if o == nil {
		return fmt.Errorf("dispatch: nil transport order")
	}
	if o.State != model.OrderDispatchable {
		return fmt.Errorf("dispatch: order %s is %s, not %s", o.Name, o.State, model.OrderDispatchable)
	}
	e.enqueue(model.OrderDispatch{Order: o.Name})
	return nil
}

// RequestWithdrawal asks the engine to abort the vehicle's current order.
// The request is always enqueued; a vehicle without an order is simply
// reset (and disabled if requested).
func (e *Engine) RequestWithdrawal(vehicle string, disableVehicle bool) {
	e.enqueue(model.Withdrawal{Vehicle: vehicle, DisableVehicle: disableVehicle})
}

// Reservations returns a snapshot of the current order reservations for
// diagnostics.
func (e *Engine) Reservations() map[string]string {
	return e.reservations.Snapshot()
}

// QueueDepth returns the number of pending events.
func (e *Engine) QueueDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) enqueue(d model.Dispatchable) {
	e.mu.Lock()
	e.queue = append(e.queue, d)
	queueDepth.Set(float64(len(e.queue)))
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// enqueueVehicle queues a vehicle event, dropping any stale pending event
// for the same vehicle first. A fresher decision supersedes whatever was
// queued for the vehicle before.
func (e *Engine) enqueueVehicle(name string) {
	e.mu.Lock()
	kept := e.queue[:0]
	for _, d := range e.queue {
		if vd, ok := d.(model.VehicleDispatch); ok && vd.Vehicle == name {
			continue
		}
		kept = append(kept, d)
	}
	e.queue = append(kept, model.VehicleDispatch{Vehicle: name})
	queueDepth.Set(float64(len(e.queue)))
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// next blocks until an event is available or the engine stops.
func (e *Engine) next() (model.Dispatchable, bool) {
	for {
		e.mu.Lock()
		if len(e.queue) > 0 {
			d := e.queue[0]
			e.queue = e.queue[1:]
			queueDepth.Set(float64(len(e.queue)))
			e.mu.Unlock()
			return d, true
		}
		quit := e.quit
		e.mu.Unlock()
		select {
		case <-e.wake:
		case <-quit:
			return nil, false
		}
	}
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		d, ok := e.next()
		if !ok {
			return
		}
		e.process(d)
		e.mu.Lock()
		stopped := !e.running
		e.mu.Unlock()
		if stopped {
			return
		}
	}
}

// process handles exactly one event. It runs on the worker only.
func (e *Engine) process(d model.Dispatchable) {
	start := time.Now()
	var kind string
	switch ev := d.(type) {
	case model.OrderDispatch:
		kind = "order"
		e.assignOrder(ev.Order)
	case model.VehicleDispatch:
		kind = "vehicle"
		e.dispatchVehicle(ev.Vehicle)
	case model.Withdrawal:
		kind = "withdrawal"
		e.abortOrder(ev.Vehicle, ev.DisableVehicle)
	default:
		e.log.Errorf("unknown dispatchable %T", d)
		return
	}
	eventLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) record(rec logging.Record) {
	e.mu.Lock()
	store := e.store
	e.mu.Unlock()
	if store == nil {
		return
	}
	rec.Timestamp = time.Now()
	if err := store.Append(context.Background(), rec); err != nil {
		e.log.Errorf("decision log: %v", err)
	}
}

func (e *Engine) disableRequested(vehicle string) bool {
	_, ok := e.toDisable[vehicle]
	return ok
}
