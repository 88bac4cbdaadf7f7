package patterns

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedPack is returned for pattern pack files with an unknown extension
var ErrUnsupportedPack = errors.New("unsupported pattern pack format")

// LoadPack reads additional dictionaries from a TOML or YAML file
func LoadPack(path string) (PatternSet, error) {
	var pack PatternSet

	data, err := os.ReadFile(path)
	if err != nil {
		return pack, fmt.Errorf("read pattern pack: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &pack); err != nil {
			return pack, fmt.Errorf("decode TOML pattern pack: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return pack, fmt.Errorf("decode YAML pattern pack: %w", err)
		}
	default:
		return pack, fmt.Errorf("%w: %s", ErrUnsupportedPack, filepath.Ext(path))
	}

	return pack, nil
}

// LoadWithPack returns the built-in set, extended with the pack at path when path is set
func LoadWithPack(path string) (PatternSet, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	pack, err := LoadPack(path)
	if err != nil {
		return PatternSet{}, err
	}

	return base.Extend(pack), nil
}
