package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagv/fleetkernel/core/model"
)

func TestVehicleReportUpdatesRegistry(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})

	err := fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:     "V1",
		Position:    "P4",
		State:       model.StateCharging,
		EnergyLevel: 120,
	})
	require.NoError(t, err)

	v := fx.vehicle(t, "V1")
	assert.Equal(t, "P4", v.Position)
	assert.Equal(t, model.StateCharging, v.State)
	assert.Equal(t, 100, v.EnergyLevel)
}

func TestVehicleReportLeavesUnreportedFieldsAlone(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1", EnergyLevel: 77})

	require.NoError(t, fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:     "V1",
		EnergyLevel: -1,
	}))

	v := fx.vehicle(t, "V1")
	assert.Equal(t, "P1", v.Position)
	assert.Equal(t, model.StateIdle, v.State)
	assert.Equal(t, 77, v.EnergyLevel)
}

func TestVehicleReportRejectsUnknownVehicle(t *testing.T) {
	fx := newFixture(t, Config{})
	assert.Error(t, fx.engine.HandleVehicleReport(VehicleReport{Vehicle: "ghost", EnergyLevel: -1}))
	assert.Error(t, fx.engine.HandleVehicleReport(VehicleReport{EnergyLevel: -1}))
}

func TestVehicleReportAdvancesOrderLegs(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	o := model.TransportOrder{
		Name:  "TO-1",
		State: model.OrderDispatchable,
		DriveOrders: []model.DriveOrder{
			{Destination: "P5", Operation: model.OpNop},
			{Destination: "P9", Operation: model.OpNop},
		},
	}
	fx.addOrder(t, o)
	fx.engine.dispatchVehicle("V1")
	require.Equal(t, model.ProcProcessingOrder, fx.vehicle(t, "V1").ProcState)

	// The driver reports the first leg done; the kernel returns the
	// vehicle to AWAITING_ORDER and queues a dispatch cycle for it.
	require.NoError(t, fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:       "V1",
		Position:      "P5",
		EnergyLevel:   -1,
		OrderComplete: true,
	}))
	v := fx.vehicle(t, "V1")
	assert.Equal(t, model.ProcAwaitingOrder, v.ProcState)
	assert.Equal(t, "P5", v.Position)
	require.Equal(t, 1, fx.engine.QueueDepth())

	fx.engine.dispatchVehicle("V1")
	assert.Equal(t, model.ProcProcessingOrder, fx.vehicle(t, "V1").ProcState)
	require.Len(t, fx.pool.controller("V1").sentOrders(), 2)
	assert.Equal(t, "P9", fx.pool.controller("V1").sentOrders()[1].Destination)

	// The final leg's report finishes the order.
	require.NoError(t, fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:       "V1",
		Position:      "P9",
		EnergyLevel:   -1,
		OrderComplete: true,
	}))
	fx.engine.dispatchVehicle("V1")
	assert.Equal(t, model.OrderFinished, fx.order(t, "TO-1").State)
	assert.Equal(t, model.ProcIdle, fx.vehicle(t, "V1").ProcState)
}

func TestVehicleReportCompletionIgnoredWhenNotProcessing(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})

	require.NoError(t, fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:       "V1",
		EnergyLevel:   -1,
		OrderComplete: true,
	}))

	// A stray completion without a commanded order must not push the
	// vehicle into AWAITING_ORDER.
	assert.Equal(t, model.ProcIdle, fx.vehicle(t, "V1").ProcState)
}

func TestVehicleReportFinalizesWithdrawalAndTakesReservedOrder(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addOrder(t, transportTo("TO-1", "P8"))
	fx.engine.dispatchVehicle("V1")
	require.Equal(t, "TO-1", fx.vehicle(t, "V1").TransportOrder)

	// A replacement order is reserved, the running one withdrawn.
	fx.addOrder(t, transportTo("TO-2", "P9"))
	fx.engine.reservations.Reserve("TO-2", "V1")
	fx.engine.abortOrder("V1", false)
	require.Equal(t, model.OrderWithdrawn, fx.order(t, "TO-1").State)

	// The driver reports the aborted leg done; the follow-up cycle
	// finalizes the withdrawal and assigns the reserved order.
	require.NoError(t, fx.engine.HandleVehicleReport(VehicleReport{
		Vehicle:       "V1",
		Position:      "P3",
		EnergyLevel:   -1,
		OrderComplete: true,
	}))
	fx.engine.dispatchVehicle("V1")

	assert.Equal(t, model.OrderFailed, fx.order(t, "TO-1").State)
	v := fx.vehicle(t, "V1")
	assert.Equal(t, "TO-2", v.TransportOrder)
	assert.Equal(t, model.ProcProcessingOrder, v.ProcState)
	assert.Empty(t, fx.engine.Reservations())
}

func TestFinishOrderWakesVehiclesAwaitingResources(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2"})
	fx.addOrder(t, transportTo("TO-1", "P9"))
	blocked := model.TransportOrder{
		Name:  "TO-2",
		State: model.OrderDispatchable,
		DriveOrders: []model.DriveOrder{
			{Destination: "P5", Operation: model.OpNop},
			{Destination: "P9", Operation: model.OpNop},
		},
	}
	fx.addOrder(t, blocked)
	fx.engine.dispatchVehicle("V1")
	fx.engine.dispatchVehicle("V2")
	require.Equal(t, "TO-2", fx.vehicle(t, "V2").TransportOrder)

	// V2 finishes its first leg but the next one conflicts with V1.
	fx.sched.reserveErr["V2"] = errors.New("point P9 allocated")
	require.NoError(t, fx.reg.SetVehiclePosition("V2", "P5"))
	require.NoError(t, fx.reg.SetVehicleProcState("V2", model.ProcAwaitingOrder))
	fx.engine.dispatchVehicle("V2")
	require.Equal(t, model.ProcAwaitingOrder, fx.vehicle(t, "V2").ProcState)

	// V1 completing its order releases the contested resources; the
	// blocked vehicle re-enters the queue without a driver report.
	delete(fx.sched.reserveErr, "V2")
	require.NoError(t, fx.reg.SetVehiclePosition("V1", "P9"))
	require.NoError(t, fx.reg.SetVehicleProcState("V1", model.ProcAwaitingOrder))
	fx.engine.dispatchVehicle("V1")
	require.Equal(t, model.OrderFinished, fx.order(t, "TO-1").State)
	assert.Equal(t, 2, fx.engine.QueueDepth())

	fx.engine.dispatchVehicle("V2")
	assert.Equal(t, model.ProcProcessingOrder, fx.vehicle(t, "V2").ProcState)
	assert.Equal(t, 1, fx.order(t, "TO-2").CurrentDriveOrder)
}
