package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/infra/mqtt"
)

func TestVehicleReportConversion(t *testing.T) {
	level := 42
	r := vehicleReport(mqtt.StatusReport{
		Vehicle:       "V1",
		Position:      "P9",
		State:         "charging",
		EnergyLevel:   &level,
		OrderComplete: true,
	})
	assert.Equal(t, "V1", r.Vehicle)
	assert.Equal(t, "P9", r.Position)
	assert.Equal(t, model.StateCharging, r.State)
	assert.Equal(t, 42, r.EnergyLevel)
	assert.True(t, r.OrderComplete)
}

func TestVehicleReportConversionOmittedFields(t *testing.T) {
	r := vehicleReport(mqtt.StatusReport{Vehicle: "V1"})
	assert.Equal(t, model.StateUnknown, r.State)
	assert.Equal(t, -1, r.EnergyLevel)
	assert.Empty(t, r.Position)
	assert.False(t, r.OrderComplete)
}
