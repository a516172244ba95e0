package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Profile *profileSchema `toml:"profile,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profile schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	DeviceID     string `toml:"device_id"`
	FriendlyName string `toml:"friendly_name,omitempty"`
}
