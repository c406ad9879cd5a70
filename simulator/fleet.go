package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateFleet creates Count vehicles with names agv0001..agvNNNN, all
// sharing the configured acknowledgment behavior and operation set.
func GenerateFleet(cfg Config) []*SimulatedVehicle {
	if cfg.Count <= 0 {
		return nil
	}
	var strat AckStrategy = AutoAck{Delay: cfg.AckLatency}
	if cfg.DropRate > 0 {
		strat = RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	}
	vs := make([]*SimulatedVehicle, cfg.Count)
	for i := range vs {
		name := fmt.Sprintf("agv%04d", i+1)
		vs[i] = NewSimulatedVehicle(name, cfg.Broker, cfg.AckTopic, strat, cfg.Operations)
		if len(cfg.StartPoints) > 0 {
			vs[i].SetPosition(cfg.StartPoints[i%len(cfg.StartPoints)])
		}
	}
	return vs
}

// RunFleet starts every vehicle and blocks until ctx is done or one of
// them fails to connect.
func RunFleet(ctx context.Context, vs []*SimulatedVehicle) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range vs {
		v := v
		g.Go(func() error { return v.Run(ctx) })
	}
	return g.Wait()
}
