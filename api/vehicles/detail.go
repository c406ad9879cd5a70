package vehicles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/openagv/fleetkernel/core/dispatch"
	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
)

// Detail is the JSON shape of GET /api/vehicles/{name}: the vehicle plus
// its current order, if any.
type Detail struct {
	Vehicle Status       `json:"vehicle"`
	Order   *OrderDetail `json:"order,omitempty"`
}

// OrderDetail summarizes the order a vehicle is processing.
type OrderDetail struct {
	Name              string             `json:"name"`
	State             string             `json:"state"`
	CurrentDriveOrder int                `json:"current_drive_order"`
	DriveOrders       []model.DriveOrder `json:"drive_orders"`
	Rejections        []model.Rejection  `json:"rejections,omitempty"`
}

// NewDetailHandler exposes one vehicle via GET /api/vehicles/{name}.
func NewDetailHandler(reg dispatch.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		if name == "" || strings.Contains(name, "/") {
			http.NotFound(w, r)
			return
		}
		v, err := reg.Vehicle(name)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d := Detail{Vehicle: Status{
			Name:           v.Name,
			State:          v.State.String(),
			ProcState:      v.ProcState.String(),
			Position:       v.Position,
			EnergyLevel:    v.EnergyLevel,
			EnergyCritical: v.EnergyCritical(),
			TransportOrder: v.TransportOrder,
			OrderSequence:  v.OrderSequence,
		}}
		if v.TransportOrder != "" {
			if o, err := reg.TransportOrder(v.TransportOrder); err == nil {
				d.Order = &OrderDetail{
					Name:              o.Name,
					State:             o.State.String(),
					CurrentDriveOrder: o.CurrentDriveOrder,
					DriveOrders:       o.DriveOrders,
					Rejections:        o.Rejections,
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(d); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
