package main

import "time"

// Config holds parameters for the simulator.
type Config struct {
	Broker     string
	AckTopic   string
	Count      int
	AckLatency time.Duration
	DropRate   float64
	Operations []string
	// StartPoints are plant points the vehicles begin on, assigned round
	// robin. Vehicles without a start point report no position.
	StartPoints []string
}
