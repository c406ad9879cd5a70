// Package app assembles the dispatch kernel from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/openagv/fleetkernel/api"
	"github.com/openagv/fleetkernel/app/plugins"
	"github.com/openagv/fleetkernel/config"
	"github.com/openagv/fleetkernel/core/dispatch"
	dispatchlog "github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
	"github.com/openagv/fleetkernel/infra/logger"
	"github.com/openagv/fleetkernel/infra/metrics"
	"github.com/openagv/fleetkernel/infra/mqtt"
	"github.com/openagv/fleetkernel/infra/routing"
	"github.com/openagv/fleetkernel/infra/scheduler"
	"github.com/openagv/fleetkernel/internal/eventbus"
)

// Service orchestrates the dispatch engine and its infrastructure.
type Service struct {
	Engine   *dispatch.Engine
	Registry *registry.MemoryRegistry
	Bus      *eventbus.Bus

	client      *mqtt.PahoClient
	store       dispatchlog.LogStore
	log         logger.Logger
	promEnabled bool
	promAddr    string
	apiEnabled  bool
	apiAddr     string
	apiToken    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	reg := registry.New()
	if cfg.Plant.Path != "" {
		plant, err := config.LoadPlant(cfg.Plant.Path)
		if err != nil {
			return nil, fmt.Errorf("plant model: %w", err)
		}
		if err := plant.Apply(reg); err != nil {
			return nil, fmt.Errorf("plant model: %w", err)
		}
	}

	router := routing.New(reg, logger.New("routing"))
	sched := scheduler.New(logger.New("scheduler"))

	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	ackTimeout := time.Duration(cfg.Dispatch.AckTimeoutSeconds) * time.Second
	pool := mqtt.NewControllerPool(client, ackTimeout)

	deps := plugins.StrategyDeps{Registry: reg, Router: router}
	parkingFactory, ok := plugins.ParkingStrategies[cfg.Strategies.Parking]
	if !ok {
		return nil, fmt.Errorf("unknown parking strategy %s", cfg.Strategies.Parking)
	}
	parking, err := parkingFactory(deps, nil)
	if err != nil {
		return nil, fmt.Errorf("parking strategy: %w", err)
	}
	rechargeFactory, ok := plugins.RechargeStrategies[cfg.Strategies.Recharge]
	if !ok {
		return nil, fmt.Errorf("unknown recharge strategy %s", cfg.Strategies.Recharge)
	}
	recharge, err := rechargeFactory(deps, nil)
	if err != nil {
		return nil, fmt.Errorf("recharge strategy: %w", err)
	}

	bus := eventbus.New()
	engine, err := dispatch.NewEngine(reg, router, sched, pool,
		parking, recharge, cfg.Dispatch, bus, logger.New("dispatch"))
	if err != nil {
		return nil, fmt.Errorf("dispatch engine: %w", err)
	}

	// Driver reports are the only path that moves an executing vehicle
	// forward: they update the registry and wake the dispatch cycle.
	if err := client.SubscribeStatus(func(sr mqtt.StatusReport) {
		if err := engine.HandleVehicleReport(vehicleReport(sr)); err != nil {
			logg.Warnf("vehicle report: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("status subscription: %w", err)
	}

	storeFactory, ok := plugins.LogStores[cfg.Logging.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown log store %s", cfg.Logging.Backend)
	}
	store, err := storeFactory(map[string]any{
		"path":   cfg.Logging.Path,
		"url":    cfg.Logging.Influx.URL,
		"token":  cfg.Logging.Influx.Token,
		"org":    cfg.Logging.Influx.Org,
		"bucket": cfg.Logging.Influx.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	engine.SetLogStore(store)

	return &Service{
		Engine:      engine,
		Registry:    reg,
		Bus:         bus,
		client:      client,
		store:       store,
		log:         logg,
		promEnabled: cfg.Metrics.Enabled,
		promAddr:    cfg.Metrics.Address,
		apiEnabled:  cfg.API.Enabled,
		apiAddr:     cfg.API.Address,
		apiToken:    cfg.API.Token,
	}, nil
}

// Run starts the engine and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.Engine.Start()
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiEnabled {
		mux := api.NewMux(s.Registry, s.store, s.apiToken)
		go func() {
			if err := api.Serve(ctx, s.apiAddr, mux); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	go s.journal(ctx)
	// Give idle vehicles an initial pass so parked fleets get work
	// without waiting for the first status report.
	for _, v := range s.Registry.Vehicles() {
		s.Engine.DispatchVehicle(v)
	}
	<-ctx.Done()
	return nil
}

// journal logs the engine's decisions so operators can follow the fleet
// without querying the decision log store.
func (s *Service) journal(ctx context.Context) {
	assigned, stopAssigned := eventbus.Typed[events.OrderAssignedEvent](s.Bus)
	defer stopAssigned()
	withdrawn, stopWithdrawn := eventbus.Typed[events.OrderWithdrawnEvent](s.Bus)
	defer stopWithdrawn()
	for {
		select {
		case ev, ok := <-assigned:
			if !ok {
				return
			}
			s.log.Infof("order %s assigned to vehicle %s (%s, cost %d)", ev.Order, ev.Vehicle, ev.Kind, ev.Cost)
		case ev, ok := <-withdrawn:
			if !ok {
				return
			}
			if ev.Finalized {
				s.log.Infof("withdrawal of order %s from vehicle %s finalized", ev.Order, ev.Vehicle)
			} else {
				s.log.Infof("withdrawing order %s from vehicle %s", ev.Order, ev.Vehicle)
			}
		case <-ctx.Done():
			return
		}
	}
}

// vehicleReport converts a wire status report to the kernel's form.
func vehicleReport(sr mqtt.StatusReport) dispatch.VehicleReport {
	r := dispatch.VehicleReport{
		Vehicle:       sr.Vehicle,
		Position:      sr.Position,
		State:         model.ParseVehicleState(sr.State),
		EnergyLevel:   -1,
		OrderComplete: sr.OrderComplete,
	}
	if sr.EnergyLevel != nil {
		r.EnergyLevel = *sr.EnergyLevel
	}
	return r
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Engine.Stop()
	s.client.Disconnect()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Errorf("close log store: %v", err)
		}
	}
	s.Bus.Close()
	return nil
}
