package main

import (
	"testing"
	"time"
)

func TestGenerateFleetCount(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883", AckTopic: "fleet/ack", Count: 5}
	vs := GenerateFleet(cfg)
	if len(vs) != 5 {
		t.Fatalf("expected 5 vehicles, got %d", len(vs))
	}
	if vs[0].Name != "agv0001" || vs[4].Name != "agv0005" {
		t.Fatalf("unexpected names %s %s", vs[0].Name, vs[4].Name)
	}
}

func TestGenerateFleetStrategy(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883", AckTopic: "fleet/ack", Count: 1}
	vs := GenerateFleet(cfg)
	if _, ok := vs[0].Strategy.(AutoAck); !ok {
		t.Fatalf("expected AutoAck, got %T", vs[0].Strategy)
	}

	cfg.DropRate = 0.5
	cfg.AckLatency = 10 * time.Millisecond
	vs = GenerateFleet(cfg)
	strat, ok := vs[0].Strategy.(RandomAck)
	if !ok {
		t.Fatalf("expected RandomAck, got %T", vs[0].Strategy)
	}
	if strat.DropRate != 0.5 || strat.Delay != 10*time.Millisecond {
		t.Fatalf("strategy not configured: %+v", strat)
	}
}

func TestGenerateFleetStartPoints(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883", AckTopic: "fleet/ack", Count: 3, StartPoints: []string{"P1", "P2"}}
	vs := GenerateFleet(cfg)
	want := []string{"P1", "P2", "P1"}
	for i, v := range vs {
		v.mu.Lock()
		pos := v.position
		v.mu.Unlock()
		if pos != want[i] {
			t.Fatalf("vehicle %d at %q, want %q", i, pos, want[i])
		}
	}
}

func TestGenerateFleetEmpty(t *testing.T) {
	if vs := GenerateFleet(Config{}); vs != nil {
		t.Fatalf("expected nil fleet, got %d vehicles", len(vs))
	}
}

func TestBattery(t *testing.T) {
	b := &Battery{Level: 5, DrainPerOrder: 2}
	if lvl := b.Drain(3); lvl != 2 {
		t.Fatalf("expected level 2, got %d", lvl)
	}
	if lvl := b.Drain(10); lvl != 0 {
		t.Fatalf("expected floor at 0, got %d", lvl)
	}
	if !b.Empty() {
		t.Fatal("expected empty battery")
	}
	if lvl := b.Charge(150); lvl != 100 {
		t.Fatalf("expected cap at 100, got %d", lvl)
	}
}
