package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// command is one pending request from the kernel.
type command struct {
	id     string
	ok     bool
	reason string
	// destination is set when an accepted drive order moves the vehicle.
	destination string
}

// statusReport is the state report published after each completed order.
type statusReport struct {
	Vehicle       string `json:"vehicle"`
	Position      string `json:"position,omitempty"`
	State         string `json:"state"`
	EnergyLevel   int    `json:"energy_level"`
	OrderComplete bool   `json:"order_complete,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// SimulatedVehicle connects to MQTT and behaves like an AGV adapter: it
// answers capability queries, acknowledges drive orders and drains its
// battery while executing them.
type SimulatedVehicle struct {
	Name       string
	Broker     string
	AckTopic   string
	Strategy   AckStrategy
	Operations []string
	Battery    *Battery

	mu       sync.Mutex
	position string

	client paho.Client
	cmdCh  chan command
}

// NewSimulatedVehicle creates a new vehicle.
func NewSimulatedVehicle(name, broker, ackTopic string, strat AckStrategy, operations []string) *SimulatedVehicle {
	return &SimulatedVehicle{
		Name:       name,
		Broker:     broker,
		AckTopic:   ackTopic,
		Strategy:   strat,
		Operations: operations,
		Battery:    &Battery{Level: 100, DrainPerOrder: 2},
		cmdCh:      make(chan command, 50),
	}
}

// SetPosition places the vehicle on the named plant point. The point is
// reported with the next status message.
func (v *SimulatedVehicle) SetPosition(point string) {
	v.mu.Lock()
	v.position = point
	v.mu.Unlock()
}

// Run connects to the broker and serves commands until ctx is done.
func (v *SimulatedVehicle) Run(ctx context.Context) error {
	cli, err := newMQTTClient(v.Broker, "sim-"+v.Name)
	if err != nil {
		return err
	}
	v.client = cli
	for i := 0; i < 5; i++ {
		go v.worker(ctx)
	}
	subs := map[string]paho.MessageHandler{
		fmt.Sprintf("vehicle/%s/order", v.Name):      v.onOrder,
		fmt.Sprintf("vehicle/%s/capability", v.Name): v.onCapability,
		fmt.Sprintf("vehicle/%s/signal", v.Name):     v.onSignal,
	}
	for topic, handler := range subs {
		if token := cli.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			cli.Disconnect(250)
			return token.Error()
		}
	}
	// Announce position and battery so the kernel can dispatch us.
	v.publishStatus(false)
	<-ctx.Done()
	close(v.cmdCh)
	cli.Disconnect(250)
	return nil
}

func (v *SimulatedVehicle) onOrder(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID   string `json:"command_id"`
		Destination string `json:"destination"`
		Operation   string `json:"operation"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode order: %v", v.Name, err)
		return
	}
	cmd := command{id: m.CommandID, ok: true}
	if v.Battery.Empty() {
		cmd.ok = false
		cmd.reason = "battery empty"
	} else if m.Operation == "RECHARGE" {
		v.Battery.Charge(100)
		cmd.destination = m.Destination
	} else {
		v.Battery.Drain(v.Battery.DrainPerOrder)
		cmd.destination = m.Destination
	}
	v.enqueue(cmd)
}

func (v *SimulatedVehicle) onCapability(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID  string   `json:"command_id"`
		Operations []string `json:"operations"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode capability query: %v", v.Name, err)
		return
	}
	cmd := command{id: m.CommandID, ok: true}
	for _, op := range m.Operations {
		if !v.supports(op) {
			cmd.ok = false
			cmd.reason = fmt.Sprintf("unsupported operation %s", op)
			break
		}
	}
	v.enqueue(cmd)
}

func (v *SimulatedVehicle) onSignal(_ paho.Client, msg paho.Message) {
	var m struct {
		Signal string `json:"signal"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode signal: %v", v.Name, err)
		return
	}
	log.Printf("%s: signal %s", v.Name, m.Signal)
}

func (v *SimulatedVehicle) supports(op string) bool {
	if op == "NOP" {
		return true
	}
	for _, o := range v.Operations {
		if o == op {
			return true
		}
	}
	return false
}

func (v *SimulatedVehicle) enqueue(cmd command) {
	select {
	case v.cmdCh <- cmd:
	default:
		log.Printf("%s: ack queue full, dropping command %s", v.Name, cmd.id)
	}
}

func (v *SimulatedVehicle) worker(ctx context.Context) {
	for {
		select {
		case cmd, ok := <-v.cmdCh:
			if !ok {
				return
			}
			v.Strategy.Ack(ctx, v.client, v.AckTopic, cmd)
			if cmd.ok && cmd.destination != "" {
				v.arrive(cmd.destination)
			}
		case <-ctx.Done():
			return
		}
	}
}

// arrive records the new position and reports the completed drive order
// on the vehicle's status topic.
func (v *SimulatedVehicle) arrive(destination string) {
	v.SetPosition(destination)
	v.publishStatus(true)
}

func (v *SimulatedVehicle) publishStatus(orderComplete bool) {
	v.mu.Lock()
	pos := v.position
	v.mu.Unlock()
	payload, err := json.Marshal(statusReport{
		Vehicle:       v.Name,
		Position:      pos,
		State:         "IDLE",
		EnergyLevel:   v.Battery.Current(),
		OrderComplete: orderComplete,
		Timestamp:     time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("%s: encode status: %v", v.Name, err)
		return
	}
	topic := fmt.Sprintf("vehicle/%s/status", v.Name)
	if token := v.client.Publish(topic, 0, false, payload); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		log.Printf("%s: publish status: %v", v.Name, token.Error())
	}
}
