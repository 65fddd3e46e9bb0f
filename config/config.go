package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Validatable is implemented by config structs that check and normalize
// themselves after decoding, before any registry is built from them.
type Validatable interface {
	Validate() error
}

// LoadTOML decodes a TOML file into a struct of type T. A missing file
// yields the provided defaults, so a hub can come up before its roster file
// exists.
func LoadTOML[T any](path string, defaults *T) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := new(T)
	if defaults != nil {
		*cfg = *defaults
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if v, ok := any(cfg).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("validating config %s: %w", path, err)
		}
	}

	return cfg, nil
}
