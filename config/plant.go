package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/openagv/fleetkernel/core/model"
	"github.com/openagv/fleetkernel/core/registry"
)

// PlantConfig points to the plant model description.
type PlantConfig struct {
	Path string `json:"path"`
}

// PlantModel is the on-disk description of the plant: its topology and
// the vehicle fleet.
type PlantModel struct {
	Points    []PointSpec    `json:"points"`
	Paths     []PathSpec     `json:"paths"`
	Locations []LocationSpec `json:"locations"`
	Vehicles  []VehicleSpec  `json:"vehicles"`
}

type PointSpec struct {
	Name string `json:"name"`
	// Type is "halt" or "park".
	Type string `json:"type"`
}

type PathSpec struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Length int64  `json:"length"`
}

type LocationSpec struct {
	Name        string   `json:"name"`
	LinkedPoint string   `json:"linked_point"`
	Operations  []string `json:"operations"`
}

type VehicleSpec struct {
	Name                string `json:"name"`
	Position            string `json:"position"`
	EnergyLevel         int    `json:"energy_level"`
	EnergyLevelCritical int    `json:"energy_level_critical"`
	EnergyLevelGood     int    `json:"energy_level_good"`
}

// LoadPlant reads the plant model from the given file.
func LoadPlant(path string) (*PlantModel, error) {
	k := koanf.New(".")
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	var m PlantModel
	if err := k.UnmarshalWithConf("", &m, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks referential integrity of the plant model.
func (m *PlantModel) Validate() error {
	points := make(map[string]struct{}, len(m.Points))
	for _, p := range m.Points {
		if p.Name == "" {
			return fmt.Errorf("point without a name")
		}
		if p.Type != "" && p.Type != "halt" && p.Type != "park" {
			return fmt.Errorf("point %s has unknown type %s", p.Name, p.Type)
		}
		points[p.Name] = struct{}{}
	}
	for _, p := range m.Paths {
		if _, ok := points[p.Source]; !ok {
			return fmt.Errorf("path %s references unknown point %s", p.Name, p.Source)
		}
		if _, ok := points[p.Dest]; !ok {
			return fmt.Errorf("path %s references unknown point %s", p.Name, p.Dest)
		}
		if p.Length <= 0 {
			return fmt.Errorf("path %s must have a positive length", p.Name)
		}
	}
	for _, l := range m.Locations {
		if _, ok := points[l.LinkedPoint]; !ok {
			return fmt.Errorf("location %s links to unknown point %s", l.Name, l.LinkedPoint)
		}
	}
	for _, v := range m.Vehicles {
		if v.Position != "" {
			if _, ok := points[v.Position]; !ok {
				return fmt.Errorf("vehicle %s starts on unknown point %s", v.Name, v.Position)
			}
		}
	}
	return nil
}

// Apply populates the registry with the plant model's objects.
func (m *PlantModel) Apply(reg *registry.MemoryRegistry) error {
	for _, p := range m.Points {
		pt := model.PointHalt
		if p.Type == "park" {
			pt = model.PointPark
		}
		reg.AddPoint(model.Point{Name: p.Name, Type: pt})
	}
	for _, p := range m.Paths {
		reg.AddPath(model.Path{Name: p.Name, Source: p.Source, Dest: p.Dest, Length: p.Length})
	}
	for _, l := range m.Locations {
		reg.AddLocation(model.Location{Name: l.Name, LinkedPoint: l.LinkedPoint, Operations: l.Operations})
	}
	for _, v := range m.Vehicles {
		err := reg.AddVehicle(model.Vehicle{
			Name:                v.Name,
			Position:            v.Position,
			EnergyLevel:         v.EnergyLevel,
			EnergyLevelCritical: v.EnergyLevelCritical,
			EnergyLevelGood:     v.EnergyLevelGood,
			State:               model.StateIdle,
		})
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", v.Name, err)
		}
	}
	return nil
}
