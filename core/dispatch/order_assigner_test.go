package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagv/fleetkernel/core/events"
	"github.com/openagv/fleetkernel/core/model"
)

func TestAssignOrderPicksCheapestVehicle(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2"})
	fx.addOrder(t, transportTo("TO-1", "P9"))
	fx.router.costs["P1->P9"] = 40
	fx.router.costs["P2->P9"] = 15

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, "TO-1", fx.vehicle(t, "V2").TransportOrder)
	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
	o := fx.order(t, "TO-1")
	assert.Equal(t, model.OrderBeingProcessed, o.State)
	assert.Equal(t, "V2", o.ProcessingVehicle)
	assert.Equal(t, 0, o.CurrentDriveOrder)
	require.NotNil(t, o.Route)
	assert.Equal(t, int64(15), o.Route.Cost())
	assert.Len(t, fx.pool.controller("V2").sentOrders(), 1)
}

func TestAssignOrderCostTieKeepsFirstCandidate(t *testing.T) {
	fx := newFixture(t, Config{})
	// Vehicles() iterates in name order, so Alpha is visited first.
	fx.addVehicle(t, model.Vehicle{Name: "Alpha", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "Beta", Position: "P2"})
	fx.addOrder(t, transportTo("TO-1", "P9"))
	fx.router.costs["P1->P9"] = 25
	fx.router.costs["P2->P9"] = 25

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, "TO-1", fx.vehicle(t, "Alpha").TransportOrder)
	assert.Empty(t, fx.vehicle(t, "Beta").TransportOrder)
}

func TestAssignOrderRecordsRejections(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2"})
	fx.addOrder(t, transportTo("TO-1", "P9"))
	fx.router.unroutable["P1->P9"] = true
	ctrl := fx.pool.controller("V2")
	ctrl.refuse = true
	ctrl.reason = "no NOP support"

	fx.engine.assignOrder("TO-1")

	o := fx.order(t, "TO-1")
	assert.Equal(t, model.OrderDispatchable, o.State)
	require.Len(t, o.Rejections, 2)
	byVehicle := map[string]string{}
	for _, r := range o.Rejections {
		byVehicle[r.Vehicle] = r.Reason
	}
	assert.Equal(t, model.ReasonUnroutable, byVehicle["V1"])
	assert.Equal(t, "no NOP support", byVehicle["V2"])
}

func TestAssignOrderIgnoresUnavailableVehicles(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1", ProcState: model.ProcProcessingOrder})
	fx.addVehicle(t, model.Vehicle{Name: "V2"}) // position unknown
	fx.addVehicle(t, model.Vehicle{Name: "V3", Position: "P3", State: model.StateError})
	fx.addVehicle(t, model.Vehicle{
		Name: "V4", Position: "P4", State: model.StateCharging,
		EnergyLevel: 10, EnergyLevelCritical: 20, EnergyLevelGood: 60,
	})
	fx.addOrder(t, transportTo("TO-1", "P9"))

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, model.OrderDispatchable, fx.order(t, "TO-1").State)
}

func TestAssignOrderAcceptsChargingVehicleAboveCritical(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{
		Name: "V1", Position: "P1", State: model.StateCharging,
		EnergyLevel: 45, EnergyLevelCritical: 20, EnergyLevelGood: 60,
	})
	fx.addOrder(t, transportTo("TO-1", "P9"))

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, "TO-1", fx.vehicle(t, "V1").TransportOrder)
}

func TestAssignOrderHonorsIntendedVehicle(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2"})
	o := transportTo("TO-1", "P9")
	o.IntendedVehicle = "V2"
	fx.addOrder(t, o)
	// V1 would be far cheaper, but the order names V2.
	fx.router.costs["P1->P9"] = 1
	fx.router.costs["P2->P9"] = 100

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, "TO-1", fx.vehicle(t, "V2").TransportOrder)
	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
}

func TestAssignOrderIntendedVehicleBusyLeavesOrderPooled(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2", ProcState: model.ProcProcessingOrder})
	o := transportTo("TO-1", "P9")
	o.IntendedVehicle = "V2"
	fx.addOrder(t, o)

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, model.OrderDispatchable, fx.order(t, "TO-1").State)
	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
}

func TestAssignOrderPreemptsDispensableOrder(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{
		Name: "V1", Position: "P1",
		ProcState: model.ProcProcessingOrder, TransportOrder: "Park-1",
	})
	park := transportTo("Park-1", "PP1")
	park.State = model.OrderBeingProcessed
	park.ProcessingVehicle = "V1"
	park.Dispensable = true
	fx.addOrder(t, park)
	fx.addOrder(t, transportTo("TO-1", "P9"))

	sub := fx.bus.Subscribe()
	fx.engine.assignOrder("TO-1")

	// The transport order is reserved, not yet assigned; the parking order
	// is withdrawn so the vehicle frees up.
	res := fx.engine.Reservations()
	assert.Equal(t, "V1", res["TO-1"])
	assert.Equal(t, model.OrderWithdrawn, fx.order(t, "Park-1").State)
	assert.Equal(t, model.OrderDispatchable, fx.order(t, "TO-1").State)
	assert.Equal(t, 1, fx.pool.controller("V1").abortCount())

	ev := <-sub
	_, ok := ev.(events.ReservationEvent)
	assert.True(t, ok, "expected ReservationEvent, got %T", ev)
}

func TestAssignOrderSkipsAlreadyReservedOrder(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addOrder(t, transportTo("TO-1", "P9"))
	fx.engine.reservations.Reserve("TO-1", "V9")

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, model.OrderDispatchable, fx.order(t, "TO-1").State)
	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
}

func TestAssignOrderSequenceRestrictsCandidates(t *testing.T) {
	fx := newFixture(t, Config{})
	require.NoError(t, fx.reg.AddSequence(model.OrderSequence{Name: "SEQ-1", ProcessingVehicle: "V2"}))
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})
	fx.addVehicle(t, model.Vehicle{Name: "V2", Position: "P2", OrderSequence: "SEQ-1"})
	o := transportTo("TO-1", "P9")
	o.WrappingSequence = "SEQ-1"
	fx.addOrder(t, o)
	fx.router.costs["P1->P9"] = 1
	fx.router.costs["P2->P9"] = 100

	fx.engine.assignOrder("TO-1")

	assert.Equal(t, "TO-1", fx.vehicle(t, "V2").TransportOrder)
	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
}

func TestAssignOrderUnknownOrderIsNoOp(t *testing.T) {
	fx := newFixture(t, Config{})
	fx.addVehicle(t, model.Vehicle{Name: "V1", Position: "P1"})

	fx.engine.assignOrder("nope")

	assert.Empty(t, fx.vehicle(t, "V1").TransportOrder)
}
