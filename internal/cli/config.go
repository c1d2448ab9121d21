package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all commands. Loaded from an
// optional YAML file; flags override file values.
type Config struct {
	// Database is the path to the SQLite file.
	Database string `yaml:"database"`

	// DeviceID stamps events built on this device. Required for any
	// command that writes.
	DeviceID string `yaml:"device_id"`

	// SnapshotEvery is the snapshot cadence in committed events.
	// Zero disables automatic snapshots.
	SnapshotEvery int `yaml:"snapshot_every"`

	// Strict enables payload schema validation at dispatch time.
	Strict bool `yaml:"strict"`
}

// DefaultConfig returns the config used when no file is given.
func DefaultConfig() Config {
	return Config{
		Database:      "rolo.db",
		SnapshotEvery: 100,
	}
}

// LoadConfig reads a YAML config file. Unknown keys are rejected so a
// typo in the file surfaces instead of silently using a default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.SnapshotEvery < 0 {
		return Config{}, fmt.Errorf("parse config %s: snapshot_every must not be negative", path)
	}
	return cfg, nil
}
