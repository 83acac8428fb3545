package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/wrapshake/internal/atomicfile"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

const header = `# wrapshake configuration.
# Every key can be overridden with WRAPSHAKE_<SECTION>_<KEY>.

`

// Marshal renders cfg as commented TOML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves cfg to path. An existing file is only replaced when force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, path)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
