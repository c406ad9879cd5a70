package config

import (
	"fmt"

	"github.com/openagv/fleetkernel/infra/dispatchlog"
)

// LoggingConfig defines settings for the dispatch decision log.
type LoggingConfig struct {
	// Backend selects the log store type: "jsonl" or "influx".
	Backend string `json:"backend"`
	// Path is the file location of the JSONL store, also used as the
	// fallback when the influx backend is unreachable.
	Path string `json:"path"`
	// Influx configures the influx backend.
	Influx dispatchlog.Config `json:"influx"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "dispatch.log"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "influx" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Backend == "influx" && c.Influx.URL == "" {
		return fmt.Errorf("influx backend requires a url")
	}
	return nil
}
