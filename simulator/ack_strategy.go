package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// AckStrategy defines how a vehicle acknowledges commands.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, topic string, cmd command)
}

// AutoAck sends an ACK after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, topic string, cmd command) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, topic, cmd)
}

// RandomAck drops acknowledgments with the configured probability and
// waits for the specified delay before sending.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, topic string, cmd command) {
	if r.DropRate > 0 && rng.Float64() < r.DropRate {
		return
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, topic, cmd)
}

func publishAck(cli paho.Client, topic string, cmd command) {
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
		OK        bool   `json:"ok"`
		Reason    string `json:"reason,omitempty"`
	}{CommandID: cmd.id, OK: cmd.ok, Reason: cmd.reason})
	if err != nil {
		log.Printf("marshal ack: %v", err)
		return
	}
	token := cli.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("ack publish timeout for %s", cmd.id)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish ack error for %s: %v", cmd.id, err)
	}
}
