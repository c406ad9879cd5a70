// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - OrderAssignedEvent: a transport order was committed to a vehicle
//   - OrderWithdrawnEvent: a withdrawal started or finished for a vehicle
//   - ReservationEvent: an order was reserved for a busy vehicle
//   - IdleFallbackEvent: an idle vehicle was sent parking or recharging
package events
