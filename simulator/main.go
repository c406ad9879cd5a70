// Command simulator runs a fleet of software AGVs against an MQTT broker.
// Each vehicle answers capability queries and acknowledges drive orders,
// which makes the kernel testable without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	cfg, verbose := parseFlags()
	if err := validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if !verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vehicles := GenerateFleet(cfg)
	if err := RunFleet(ctx, vehicles); err != nil && ctx.Err() == nil {
		log.Fatalf("fleet: %v", err)
	}
}

func parseFlags() (Config, bool) {
	var cfg Config
	var ops, points string
	var verbose bool
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.AckTopic, "ack-topic", "fleet/ack", "topic acknowledgments are published on")
	flag.IntVar(&cfg.Count, "count", 1, "number of vehicles")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 0, "ack latency")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "ack drop rate")
	flag.StringVar(&ops, "operations", "PARK,RECHARGE", "comma separated operations the vehicles support")
	flag.StringVar(&points, "start-points", "", "comma separated plant points the vehicles start on")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	if ops != "" {
		cfg.Operations = strings.Split(ops, ",")
	}
	if points != "" {
		cfg.StartPoints = strings.Split(points, ",")
	}
	return cfg, verbose
}

func validate(cfg Config) error {
	if cfg.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if cfg.AckTopic == "" {
		return fmt.Errorf("ack topic is required")
	}
	if cfg.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if cfg.DropRate < 0 || cfg.DropRate > 1 {
		return fmt.Errorf("drop rate must be within [0,1]")
	}
	if cfg.AckLatency < 0 {
		return fmt.Errorf("ack latency must not be negative")
	}
	return nil
}
