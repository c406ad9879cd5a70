package mqtt

import (
	"encoding/json"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// statusTopicFilter matches the status topic of every vehicle.
const statusTopicFilter = "vehicle/+/status"

// StatusReport is the wire form of a vehicle driver's state report.
// Optional fields are omitted when the driver has nothing to report.
type StatusReport struct {
	Vehicle       string `json:"vehicle"`
	Position      string `json:"position,omitempty"`
	State         string `json:"state,omitempty"`
	EnergyLevel   *int   `json:"energy_level,omitempty"`
	OrderComplete bool   `json:"order_complete,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// SubscribeStatus registers the handler invoked for every vehicle status
// report. The subscription covers all vehicles and survives reconnects.
func (p *PahoClient) SubscribeStatus(handler func(StatusReport)) error {
	p.mu.Lock()
	p.statusHandler = handler
	p.mu.Unlock()
	if p.cli == nil || !p.cli.IsConnected() {
		return nil
	}
	if token := p.cli.Subscribe(statusTopicFilter, p.topicQoS("status"), p.onStatus); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (p *PahoClient) onStatus(_ paho.Client, msg paho.Message) {
	var m StatusReport
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode status report: %v", err)
		return
	}
	if m.Vehicle == "" {
		m.Vehicle = vehicleFromTopic(msg.Topic())
	}
	p.mu.Lock()
	handler := p.statusHandler
	p.mu.Unlock()
	if handler != nil {
		handler(m)
	}
}

// vehicleFromTopic extracts the vehicle name from a vehicle/<name>/...
// topic. It returns "" when the topic has another shape.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "vehicle" {
		return ""
	}
	return parts[1]
}
