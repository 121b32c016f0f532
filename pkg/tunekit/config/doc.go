/*
Package config provides type-safe configuration extraction from map[string]any
and the agent configuration file format.

# Typed Access

Config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values:

	cfg := config.New(map[string]any{
	    "timeout": "30s",
	    "retries": 3,
	    "enabled": true,
	})

	timeout := cfg.Duration("timeout", 10*time.Second) // 30s
	retries := cfg.Int("retries", 5)                   // 3
	enabled := cfg.Bool("enabled", false)              // true
	missing := cfg.String("missing", "default")        // "default"

Duration handles multiple input types: strings via time.ParseDuration,
ints and floats as seconds, time.Duration directly. All methods return
the default when the key is missing or the value cannot be converted.

# Agent Files

LoadFile parses the agent file that describes a full assembly: the
optimizer stanza, the ordered connectors list, and per-connector
settings stanzas keyed by connector name. Each stanza is surfaced as a
Config for the connector to read:

	f, err := config.LoadFile("tunekit.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	settings := f.ConnectorConfig("prometheus")

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
