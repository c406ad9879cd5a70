package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/openagv/fleetkernel/core/model"
	coremqtt "github.com/openagv/fleetkernel/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockClient is a simple in-memory client used in tests.
type MockClient struct {
	mu         sync.Mutex
	Orders     map[string][]model.DriveOrder // vehicle -> forwarded drive orders
	Signals    map[string][]string           // vehicle -> signals
	Queries    map[string][][]string         // vehicle -> queried operations
	FailSend   map[string]bool               // vehicle -> fail publishes
	AckResults map[string]coremqtt.Ack       // command id -> canned ack
	refusals   map[string]coremqtt.Ack       // vehicle -> capability refusal
	nextCmd    int
}

// NewMockClient creates a new MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		Orders:     make(map[string][]model.DriveOrder),
		Signals:    make(map[string][]string),
		Queries:    make(map[string][][]string),
		FailSend:   make(map[string]bool),
		AckResults: make(map[string]coremqtt.Ack),
		refusals:   make(map[string]coremqtt.Ack),
	}
}

// Refuse makes the vehicle refuse capability queries with the reason.
func (m *MockClient) Refuse(vehicle, reason string) {
	m.mu.Lock()
	m.refusals[vehicle] = coremqtt.Ack{Reason: reason}
	m.mu.Unlock()
}

func (m *MockClient) newCommand(ack coremqtt.Ack) string {
	m.nextCmd++
	id := fmt.Sprintf("cmd-%d", m.nextCmd)
	m.AckResults[id] = ack
	return id
}

// SendDriveOrder records the drive order or fails if configured to.
func (m *MockClient) SendDriveOrder(vehicle string, order model.DriveOrder, _ map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend[vehicle] {
		return "", fmt.Errorf("publish failed")
	}
	m.Orders[vehicle] = append(m.Orders[vehicle], order)
	return m.newCommand(coremqtt.Ack{OK: true}), nil
}

// SendSignal records the signal.
func (m *MockClient) SendSignal(vehicle, signal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend[vehicle] {
		return fmt.Errorf("publish failed")
	}
	m.Signals[vehicle] = append(m.Signals[vehicle], signal)
	return nil
}

// QueryCapability records the query and answers positively unless a
// canned ack was installed via RefuseNext.
func (m *MockClient) QueryCapability(vehicle string, operations []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSend[vehicle] {
		return "", fmt.Errorf("publish failed")
	}
	m.Queries[vehicle] = append(m.Queries[vehicle], operations)
	ack := coremqtt.Ack{OK: true}
	if r, ok := m.refusals[vehicle]; ok {
		ack = r
	}
	return m.newCommand(ack), nil
}

// WaitForAck returns the canned acknowledgment immediately.
func (m *MockClient) WaitForAck(commandID string, _ time.Duration) (coremqtt.Ack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ack, ok := m.AckResults[commandID]
	if !ok {
		return coremqtt.Ack{}, fmt.Errorf("unknown command")
	}
	return ack, nil
}
