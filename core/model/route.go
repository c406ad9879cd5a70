package model

// RouteLeg is the routed counterpart of one drive order: the points the
// vehicle traverses, the resolved destination point and the leg cost.
type RouteLeg struct {
	// Points lists the point names from the start position to Destination,
	// both inclusive. A single-element leg requires no movement.
	Points []string `json:"points"`
	// Destination is the resolved destination point of the leg.
	Destination string `json:"destination"`
	Cost        int64  `json:"cost"`
}

// Empty reports whether the leg requires no physical movement.
func (l RouteLeg) Empty() bool { return len(l.Points) <= 1 }

// Route is an ordered list of route legs, one per drive order of the
// transport order it was computed for.
type Route struct {
	Legs []RouteLeg `json:"legs"`
}

// Cost returns the total cost of the route as the sum of its leg costs.
func (r *Route) Cost() int64 {
	var sum int64
	for _, l := range r.Legs {
		sum += l.Cost
	}
	return sum
}
