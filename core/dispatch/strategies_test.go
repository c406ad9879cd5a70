package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
)

func TestClosestParkingStrategyPicksCheapestFreePoint(t *testing.T) {
	reg := registry.New()
	reg.AddPoint(model.Point{Name: "PP1", Type: model.PointPark})
	reg.AddPoint(model.Point{Name: "PP2", Type: model.PointPark})
	reg.AddPoint(model.Point{Name: "H1", Type: model.PointHalt})
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V1", Position: "P1"}))

	router := newFakeRouter()
	router.costs["P1->PP1"] = 30
	router.costs["P1->PP2"] = 10

	s := ClosestParkingStrategy{Registry: reg, Router: router}
	v, err := reg.Vehicle("V1")
	require.NoError(t, err)

	point, ok := s.SelectParkingPoint(v)
	require.True(t, ok)
	assert.Equal(t, "PP2", point)
}

func TestClosestParkingStrategySkipsOccupiedPoints(t *testing.T) {
	reg := registry.New()
	reg.AddPoint(model.Point{Name: "PP1", Type: model.PointPark})
	reg.AddPoint(model.Point{Name: "PP2", Type: model.PointPark})
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V1", Position: "P1"}))
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V2", Position: "PP2"}))

	router := newFakeRouter()
	router.costs["P1->PP1"] = 30
	router.costs["P1->PP2"] = 10

	s := ClosestParkingStrategy{Registry: reg, Router: router}
	v, err := reg.Vehicle("V1")
	require.NoError(t, err)

	point, ok := s.SelectParkingPoint(v)
	require.True(t, ok)
	assert.Equal(t, "PP1", point)
}

func TestClosestParkingStrategyNoFreePoint(t *testing.T) {
	reg := registry.New()
	reg.AddPoint(model.Point{Name: "PP1", Type: model.PointPark})
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V1", Position: "PP1"}))

	router := newFakeRouter()
	s := ClosestParkingStrategy{Registry: reg, Router: router}
	v, err := reg.Vehicle("V1")
	require.NoError(t, err)

	// The vehicle's own point does not count as a target.
	_, ok := s.SelectParkingPoint(v)
	assert.False(t, ok)
}

func TestFirstRechargeStrategyFindsReachableCharger(t *testing.T) {
	reg := registry.New()
	reg.AddLocation(model.Location{Name: "Loader-1", LinkedPoint: "P5", Operations: []string{"LOAD"}})
	reg.AddLocation(model.Location{Name: "Charger-1", LinkedPoint: "P6", Operations: []string{model.OpRecharge}})
	reg.AddLocation(model.Location{Name: "Charger-2", LinkedPoint: "P7", Operations: []string{model.OpRecharge}})
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V1", Position: "P1"}))

	router := newFakeRouter()
	router.unroutable["P1->Charger-1"] = true

	s := FirstRechargeStrategy{Registry: reg, Router: router}
	v, err := reg.Vehicle("V1")
	require.NoError(t, err)

	loc, ok := s.SelectRechargeLocation(v)
	require.True(t, ok)
	assert.Equal(t, "Charger-2", loc)
}

func TestFirstRechargeStrategyNoCharger(t *testing.T) {
	reg := registry.New()
	reg.AddLocation(model.Location{Name: "Loader-1", LinkedPoint: "P5", Operations: []string{"LOAD"}})
	require.NoError(t, reg.AddVehicle(model.Vehicle{Name: "V1", Position: "P1"}))

	s := FirstRechargeStrategy{Registry: reg, Router: newFakeRouter()}
	v, err := reg.Vehicle("V1")
	require.NoError(t, err)

	_, ok := s.SelectRechargeLocation(v)
	assert.False(t, ok)
}
