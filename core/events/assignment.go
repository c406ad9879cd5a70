package events

// OrderAssignedEvent is published when a transport order is committed to a
// vehicle. Kind distinguishes regular transport orders from synthesized
// recharge and parking orders.
type OrderAssignedEvent struct {
	Order   string
	Vehicle string
	Kind    string
	Cost    int64
}

// Assignment kinds.
const (
	KindTransport = "transport"
	KindRecharge  = "recharge"
	KindParking   = "parking"
)
