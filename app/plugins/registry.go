// Package plugins holds the factories the service uses to build
// exchangeable parts from configuration: idle-vehicle strategies and
// decision log stores. Builtins register themselves in init; external
// builds may add their own factories before the service starts.
package plugins

import (
	"github.com/openagv/fleetkernel/core/dispatch"
	dispatchlog "github.com/openagv/fleetkernel/core/dispatch/logging"
)

// StrategyDeps are the collaborators handed to strategy factories.
type StrategyDeps struct {
	Registry dispatch.Registry
	Router   dispatch.Router
}

// ParkingFactory builds a parking strategy from a raw configuration map.
type ParkingFactory func(deps StrategyDeps, conf map[string]any) (dispatch.ParkingStrategy, error)

// RechargeFactory builds a recharge strategy from a raw configuration map.
type RechargeFactory func(deps StrategyDeps, conf map[string]any) (dispatch.RechargeStrategy, error)

// LogStoreFactory builds a dispatch log store from raw config.
type LogStoreFactory func(conf map[string]any) (dispatchlog.LogStore, error)

var (
	ParkingStrategies  = map[string]ParkingFactory{}
	RechargeStrategies = map[string]RechargeFactory{}
	LogStores          = map[string]LogStoreFactory{}
)

func RegisterParking(name string, f ParkingFactory)   { ParkingStrategies[name] = f }
func RegisterRecharge(name string, f RechargeFactory) { RechargeStrategies[name] = f }
func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }
