package model

// PointType classifies the points of the plant model.
type PointType int

const (
	// PointHalt is a regular point a vehicle may stop at.
	PointHalt PointType = iota
	// PointPark is a point designated for idle vehicles.
	PointPark
)

// String returns a human-readable representation of the point type.
func (t PointType) String() string {
	if t == PointPark {
		return "PARK"
	}
	return "HALT"
}

// Point is a position in the plant's driving course.
type Point struct {
	Name string    `json:"name"`
	Type PointType `json:"type"`
}

// Path is a directed connection between two points. Length serves as the
// routing cost.
type Path struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Length int64  `json:"length"`
}

// Location is a station attached to a point, e.g. a charger or a transfer
// station. Operations lists what vehicles can do there.
type Location struct {
	Name        string   `json:"name"`
	LinkedPoint string   `json:"linked_point"`
	Operations  []string `json:"operations,omitempty"`
}

// Supports reports whether the location offers the given operation.
func (l Location) Supports(op string) bool {
	for _, o := range l.Operations {
		if o == op {
			return true
		}
	}
	return false
}
