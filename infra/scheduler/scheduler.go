// Package scheduler allocates plant-model points to vehicles. A point is
// owned by at most one vehicle at a time; a vehicle owns the points of
// its current route leg until the next leg replaces them.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openagv/fleetkernel/core/logger"
	"github.com/openagv/fleetkernel/core/model"
)

// ErrConflict is returned when a requested point is owned by another
// vehicle.
var ErrConflict = errors.New("resource conflict")

// PointScheduler is the default ResourceScheduler implementation.
type PointScheduler struct {
	log logger.Logger

	mu     sync.Mutex
	owners map[string]string   // point -> vehicle
	held   map[string][]string // vehicle -> points
}

// New creates an empty PointScheduler.
func New(log logger.Logger) *PointScheduler {
	return &PointScheduler{
		log:    log,
		owners: make(map[string]string),
		held:   make(map[string][]string),
	}
}

// Reserve allocates the leg's points to the vehicle, replacing whatever
// the vehicle held before. Nothing is allocated on conflict.
func (s *PointScheduler) Reserve(vehicle string, leg model.RouteLeg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range leg.Points {
		if owner, ok := s.owners[p]; ok && owner != vehicle {
			return fmt.Errorf("point %s owned by %s: %w", p, owner, ErrConflict)
		}
	}
	s.releaseLocked(vehicle)
	for _, p := range leg.Points {
		s.owners[p] = vehicle
	}
	s.held[vehicle] = append([]string(nil), leg.Points...)
	s.log.Debugf("vehicle %s reserved %d points to %s", vehicle, len(leg.Points), leg.Destination)
	return nil
}

// Release frees all points held by the vehicle.
func (s *PointScheduler) Release(vehicle string) {
	s.mu.Lock()
	s.releaseLocked(vehicle)
	s.mu.Unlock()
}

func (s *PointScheduler) releaseLocked(vehicle string) {
	for _, p := range s.held[vehicle] {
		if s.owners[p] == vehicle {
			delete(s.owners, p)
		}
	}
	delete(s.held, vehicle)
}

// Owner returns the vehicle currently owning the point.
func (s *PointScheduler) Owner(point string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.owners[point]
	return v, ok
}
