package mqtt

import (
	"fmt"
	"time"

	"github.com/openagv/fleetkernel/core/dispatch"
	"github.com/openagv/fleetkernel/core/model"
	coremqtt "github.com/openagv/fleetkernel/core/mqtt"
	"github.com/openagv/fleetkernel/infra/logger"
)

// ControllerPool adapts an MQTT client into the per-vehicle controllers
// the dispatch engine commands. All vehicles share one broker connection;
// topics are namespaced per vehicle.
type ControllerPool struct {
	cli        coremqtt.Client
	ackTimeout time.Duration
	logger     logger.Logger
}

// NewControllerPool creates a pool on top of the given client. ackTimeout
// bounds every command round trip.
func NewControllerPool(cli coremqtt.Client, ackTimeout time.Duration) *ControllerPool {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &ControllerPool{
		cli:        cli,
		ackTimeout: ackTimeout,
		logger:     logger.New("vehicle_controller"),
	}
}

// ControllerFor returns the controller commanding the named vehicle.
func (p *ControllerPool) ControllerFor(vehicle string) dispatch.VehicleController {
	return &controller{pool: p, vehicle: vehicle}
}

type controller struct {
	pool    *ControllerPool
	vehicle string
}

// CanProcess queries the vehicle driver for the given operations. A driver
// that does not answer within the ack timeout counts as refusing.
func (c *controller) CanProcess(operations []string) (bool, string) {
	cmdID, err := c.pool.cli.QueryCapability(c.vehicle, operations)
	if err != nil {
		c.pool.logger.Errorf("capability query for %s: %v", c.vehicle, err)
		return false, "capability query failed"
	}
	ack, err := c.pool.cli.WaitForAck(cmdID, c.pool.ackTimeout)
	if err != nil {
		c.pool.logger.Warnf("capability reply from %s: %v", c.vehicle, err)
		return false, "no capability reply"
	}
	return ack.OK, ack.Reason
}

// SetDriveOrder forwards the drive order and waits for the driver's
// acknowledgment.
func (c *controller) SetDriveOrder(order model.DriveOrder, properties map[string]string) error {
	cmdID, err := c.pool.cli.SendDriveOrder(c.vehicle, order, properties)
	if err != nil {
		return fmt.Errorf("sending drive order to %s: %w", c.vehicle, err)
	}
	ack, err := c.pool.cli.WaitForAck(cmdID, c.pool.ackTimeout)
	if err != nil {
		return fmt.Errorf("drive order ack from %s: %w", c.vehicle, err)
	}
	if !ack.OK {
		return fmt.Errorf("vehicle %s rejected drive order: %s", c.vehicle, ack.Reason)
	}
	return nil
}

// AbortDriveOrder tells the driver to stop after the current movement.
func (c *controller) AbortDriveOrder() {
	if err := c.pool.cli.SendSignal(c.vehicle, coremqtt.SignalAbort); err != nil {
		c.pool.logger.Errorf("abort signal to %s: %v", c.vehicle, err)
	}
}

// ClearCommandQueue tells the driver to discard queued movements.
func (c *controller) ClearCommandQueue() {
	if err := c.pool.cli.SendSignal(c.vehicle, coremqtt.SignalClear); err != nil {
		c.pool.logger.Errorf("clear signal to %s: %v", c.vehicle, err)
	}
}
