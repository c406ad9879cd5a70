package plugins

import (
	"fmt"

	"github.com/openagv/fleetkernel/core/dispatch"
	dispatchlog "github.com/openagv/fleetkernel/core/dispatch/logging"
	influxlog "github.com/openagv/fleetkernel/infra/dispatchlog"
)

func init() {
	RegisterParking("closest", func(deps StrategyDeps, _ map[string]any) (dispatch.ParkingStrategy, error) {
		return dispatch.ClosestParkingStrategy{Registry: deps.Registry, Router: deps.Router}, nil
	})
	RegisterRecharge("first", func(deps StrategyDeps, _ map[string]any) (dispatch.RechargeStrategy, error) {
		return dispatch.FirstRechargeStrategy{Registry: deps.Registry, Router: deps.Router}, nil
	})

	RegisterLogStore("jsonl", func(conf map[string]any) (dispatchlog.LogStore, error) {
		path, _ := conf["path"].(string)
		if path == "" {
			return nil, fmt.Errorf("jsonl store requires a path")
		}
		return dispatchlog.NewJSONLStore(path)
	})
	RegisterLogStore("influx", func(conf map[string]any) (dispatchlog.LogStore, error) {
		cfg := influxlog.Config{
			URL:    str(conf, "url"),
			Token:  str(conf, "token"),
			Org:    str(conf, "org"),
			Bucket: str(conf, "bucket"),
		}
		return influxlog.NewInfluxStoreWithFallback(cfg, str(conf, "path"))
	})
}

func str(conf map[string]any, key string) string {
	s, _ := conf[key].(string)
	return s
}
