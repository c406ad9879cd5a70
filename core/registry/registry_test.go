package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/openagv/fleetkernel/core/model"
)

func TestMemoryRegistry_VehicleRoundTrip(t *testing.T) {
	r := New()
	if err := r.AddVehicle(model.Vehicle{Name: "v1", EnergyLevel: 80, EnergyLevelGood: 70}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddVehicle(model.Vehicle{Name: "v1", EnergyLevel: 80, EnergyLevelGood: 70}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	v, err := r.Vehicle("v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Snapshots must not alias the stored object.
	v.EnergyLevel = 1
	again, _ := r.Vehicle("v1")
	if again.EnergyLevel != 80 {
		t.Fatalf("snapshot aliased store: %d", again.EnergyLevel)
	}
	if _, err := r.Vehicle("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRegistry_DispatchablePoolOrder(t *testing.T) {
	r := New()
	names := []string{"o3", "o1", "o2"}
	for _, n := range names {
		err := r.CreateOrder(&model.TransportOrder{
			Name:        n,
			State:       model.OrderDispatchable,
			DriveOrders: []model.DriveOrder{{Destination: "p1", Operation: model.OpNop}},
			Created:     time.Now(),
		})
		if err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	_ = r.SetOrderState("o1", model.OrderBeingProcessed)
	pool := r.DispatchableOrders()
	if len(pool) != 2 || pool[0].Name != "o3" || pool[1].Name != "o2" {
		t.Fatalf("pool must keep creation order, got %v", []string{pool[0].Name, pool[1].Name})
	}
}

func TestMemoryRegistry_Mutators(t *testing.T) {
	r := New()
	if err := r.AddVehicle(model.Vehicle{Name: "v1", EnergyLevel: 50, EnergyLevelGood: 70}); err != nil {
		t.Fatalf("add vehicle: %v", err)
	}
	if err := r.CreateOrder(&model.TransportOrder{
		Name:        "o1",
		State:       model.OrderDispatchable,
		DriveOrders: []model.DriveOrder{{Destination: "p1", Operation: model.OpNop}},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := r.AddSequence(model.OrderSequence{Name: "s1", Orders: []string{"o1"}}); err != nil {
		t.Fatalf("add sequence: %v", err)
	}

	_ = r.SetVehicleProcState("v1", model.ProcProcessingOrder)
	_ = r.SetVehicleOrder("v1", "o1")
	_ = r.SetOrderState("o1", model.OrderBeingProcessed)
	_ = r.SetOrderProcessingVehicle("o1", "v1")
	_ = r.SetOrderCurrentDriveOrder("o1", 0)
	_ = r.SetSequenceProcessingVehicle("s1", "v1")
	_ = r.AppendRejection("o1", model.Rejection{Vehicle: "v2", Reason: "busy"})

	v, _ := r.Vehicle("v1")
	if v.ProcState != model.ProcProcessingOrder || v.TransportOrder != "o1" {
		t.Fatalf("vehicle not updated: %+v", v)
	}
	o, _ := r.TransportOrder("o1")
	if o.State != model.OrderBeingProcessed || o.ProcessingVehicle != "v1" || o.CurrentDriveOrder != 0 {
		t.Fatalf("order not updated: %+v", o)
	}
	if len(o.Rejections) != 1 || o.Rejections[0].Reason != "busy" {
		t.Fatalf("rejection not appended: %+v", o.Rejections)
	}
	s, _ := r.OrderSequence("s1")
	if s.ProcessingVehicle != "v1" {
		t.Fatalf("sequence not updated: %+v", s)
	}
	if err := r.SetOrderState("missing", model.OrderFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRegistry_NewOrderHasNoCurrentLeg(t *testing.T) {
	r := New()
	_ = r.CreateOrder(&model.TransportOrder{
		Name:        "o1",
		State:       model.OrderDispatchable,
		DriveOrders: []model.DriveOrder{{Destination: "p1", Operation: model.OpNop}},
	})
	o, _ := r.TransportOrder("o1")
	if o.CurrentDriveOrder != -1 {
		t.Fatalf("expected -1, got %d", o.CurrentDriveOrder)
	}
}
