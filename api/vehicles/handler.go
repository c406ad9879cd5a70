// Package vehicles exposes fleet state over HTTP.
package vehicles

import (
	"encoding/json"
	"net/http"

	"github.com/openagv/fleetkernel/core/dispatch"
)

// Status is the JSON shape of one vehicle in the fleet listing.
type Status struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	ProcState      string `json:"proc_state"`
	Position       string `json:"position,omitempty"`
	EnergyLevel    int    `json:"energy_level"`
	EnergyCritical bool   `json:"energy_critical"`
	TransportOrder string `json:"transport_order,omitempty"`
	OrderSequence  string `json:"order_sequence,omitempty"`
}

// NewStatusHandler returns an HTTP handler exposing the fleet via
// GET /api/vehicles. The optional state query parameter filters by
// vehicle state.
func NewStatusHandler(reg dispatch.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stateFilter := r.URL.Query().Get("state")
		out := []Status{}
		for _, v := range reg.Vehicles() {
			if stateFilter != "" && v.State.String() != stateFilter {
				continue
			}
			out = append(out, Status{
				Name:           v.Name,
				State:          v.State.String(),
				ProcState:      v.ProcState.String(),
				Position:       v.Position,
				EnergyLevel:    v.EnergyLevel,
				EnergyCritical: v.EnergyCritical(),
				TransportOrder: v.TransportOrder,
				OrderSequence:  v.OrderSequence,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
