package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnvFile publishes the KEY=value pairs of the settings file at path as
// process environment variables. Keys already present in the environment
// keep their value. A missing file is not an error; a malformed one is
// returned without applying any of its values.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load settings file %s: %w", path, err)
	}

	return nil
}
