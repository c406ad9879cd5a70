package mqtt

import (
	"errors"
	"time"

	"github.com/openagv/fleetkernel/core/model"
)

// ErrAckTimeout is returned when no acknowledgment arrives before the
// timeout expires.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// Ack is a vehicle's reply to a command.
type Ack struct {
	OK     bool
	Reason string
}

// Client represents an MQTT client capable of sending commands to
// vehicles and waiting for their acknowledgments.
type Client interface {
	// SendDriveOrder forwards a drive order to the vehicle and returns the
	// command identifier used to track the acknowledgment.
	SendDriveOrder(vehicle string, order model.DriveOrder, properties map[string]string) (commandID string, err error)

	// SendSignal sends a bare control signal (abort, clear) to the vehicle.
	SendSignal(vehicle, signal string) error

	// QueryCapability asks the vehicle whether it can perform the given
	// operations and returns the command identifier of the query.
	QueryCapability(vehicle string, operations []string) (commandID string, err error)

	// WaitForAck waits for the acknowledgment of the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (Ack, error)
}

// Control signals understood by vehicle drivers.
const (
	SignalAbort = "abort"
	SignalClear = "clear"
)
