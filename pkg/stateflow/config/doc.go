// Package config provides type-safe access to node configuration.
//
// Configuration is loaded from YAML or JSON into a Config, a thin wrapper
// around map[string]any whose accessors take a default and never fail:
//
//	cfg, err := config.FromFile("node.yaml")
//	if err != nil {
//	    return err
//	}
//	rate := cfg.Float("clock.rate", 1.0) // dotted path into a section
//	clockCfg := cfg.Sub("clock")
//
// # Identifiers
//
// Event and node IDs are accepted as integers, as hex strings with a 0x
// prefix, or in dotted-byte form ("01.01.00.00.01.00.00.00"):
//
//	id := cfg.Uint64("clock_id", 0)
//
// # Node settings
//
// LoadNodeSettings reads the settings of an lcbclock node:
//
//	node_id: 05.01.01.01.22.00
//	clock:
//	  id: 0x0101000001000000
//	  start: 2024-03-01T10:00:00Z
//	  rate: 4
//	  running: true
//	store: ./clock.db
//	log_level: debug
//	alarm_period: 15m
package config
