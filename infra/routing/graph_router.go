// Package routing provides the shortest-path router used by the dispatch
// engine. Routes are computed with Dijkstra's algorithm over a weighted
// directed graph built from the plant model's points and paths.
package routing

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/openagv/fleetkernel/core/logger"
	"github.com/openagv/fleetkernel/core/model"
)

// PlantReader is the slice of the registry the router needs.
type PlantReader interface {
	Points() []*model.Point
	Paths() []*model.Path
	Location(name string) (*model.Location, error)
}

// GraphRouter computes routes over the plant model. Rebuild must be called
// after the plant model changes; computations between rebuilds use a
// consistent graph.
type GraphRouter struct {
	plant PlantReader
	log   logger.Logger

	mu        sync.RWMutex
	graph     *simple.WeightedDirectedGraph
	ids       map[string]int64
	names     map[int64]string
	committed map[string]*model.Route
}

// New creates a router and builds the initial graph from the plant model.
func New(plant PlantReader, log logger.Logger) *GraphRouter {
	r := &GraphRouter{
		plant:     plant,
		log:       log,
		committed: make(map[string]*model.Route),
	}
	r.Rebuild()
	return r
}

// Rebuild reconstructs the routing graph from the plant model.
func (r *GraphRouter) Rebuild() {
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	ids := make(map[string]int64)
	names := make(map[int64]string)
	var next int64
	node := func(point string) int64 {
		id, ok := ids[point]
		if !ok {
			id = next
			next++
			ids[point] = id
			names[id] = point
			g.AddNode(simple.Node(id))
		}
		return id
	}
	for _, p := range r.plant.Points() {
		node(p.Name)
	}
	edges := 0
	for _, p := range r.plant.Paths() {
		if p.Source == p.Dest {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(node(p.Source)),
			T: simple.Node(node(p.Dest)),
			W: float64(p.Length),
		})
		edges++
	}

	r.mu.Lock()
	r.graph = g
	r.ids = ids
	r.names = names
	r.mu.Unlock()
	r.log.Debugf("routing graph rebuilt: %d points, %d paths", len(ids), edges)
}

// ComputeRoute builds a route from the given position through all the
// order's drive orders. It returns false when any destination cannot be
// resolved or reached.
func (r *GraphRouter) ComputeRoute(_ *model.Vehicle, from string, o *model.TransportOrder) (*model.Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route := &model.Route{Legs: make([]model.RouteLeg, 0, len(o.DriveOrders))}
	prev := from
	for _, do := range o.DriveOrders {
		dest, err := r.resolveLocked(do.Destination)
		if err != nil {
			r.log.Debugf("order %s: %v", o.Name, err)
			return nil, false
		}
		leg, ok := r.shortestLocked(prev, dest)
		if !ok {
			return nil, false
		}
		route.Legs = append(route.Legs, leg)
		prev = dest
	}
	return route, true
}

// CommitRoute remembers the route driven by the vehicle.
func (r *GraphRouter) CommitRoute(vehicle string, route *model.Route) {
	r.mu.Lock()
	r.committed[vehicle] = route
	r.mu.Unlock()
}

// ReleaseRoute forgets the vehicle's committed route.
func (r *GraphRouter) ReleaseRoute(vehicle string) {
	r.mu.Lock()
	delete(r.committed, vehicle)
	r.mu.Unlock()
}

// CommittedRoute returns the route currently committed for the vehicle.
func (r *GraphRouter) CommittedRoute(vehicle string) (*model.Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.committed[vehicle]
	return route, ok
}

// resolveLocked maps a drive order destination to a point: either the
// point itself or the linked point of a location.
func (r *GraphRouter) resolveLocked(dest string) (string, error) {
	if _, ok := r.ids[dest]; ok {
		return dest, nil
	}
	loc, err := r.plant.Location(dest)
	if err != nil {
		return "", fmt.Errorf("destination %s is neither point nor location", dest)
	}
	if _, ok := r.ids[loc.LinkedPoint]; !ok {
		return "", fmt.Errorf("location %s links to unknown point %s", dest, loc.LinkedPoint)
	}
	return loc.LinkedPoint, nil
}

// shortestLocked runs Dijkstra between two points.
func (r *GraphRouter) shortestLocked(from, to string) (model.RouteLeg, bool) {
	srcID, ok := r.ids[from]
	if !ok {
		return model.RouteLeg{}, false
	}
	dstID, ok := r.ids[to]
	if !ok {
		return model.RouteLeg{}, false
	}
	if from == to {
		return model.RouteLeg{Points: []string{from}, Destination: to, Cost: 0}, true
	}
	shortest := path.DijkstraFrom(r.graph.Node(srcID), r.graph)
	nodes, weight := shortest.To(dstID)
	if math.IsInf(weight, 1) || len(nodes) == 0 {
		return model.RouteLeg{}, false
	}
	points := make([]string, 0, len(nodes))
	for _, n := range nodes {
		points = append(points, r.names[n.ID()])
	}
	return model.RouteLeg{
		Points:      points,
		Destination: to,
		Cost:        int64(math.Round(weight)),
	}, true
}
