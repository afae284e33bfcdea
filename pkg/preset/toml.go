package preset

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// prTomlFile is the TOML-friendly representation of a preset file,
// which may hold several views.
type prTomlFile struct {
	Presets []ViewPreset `toml:"presets"`
}

// LoadFromTOML parses custom view presets from TOML data. Each preset
// needs at least a name; missing directions and page sizes get defaults.
func LoadFromTOML(data []byte) ([]ViewPreset, error) {
	var raw prTomlFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("preset: parse TOML: %w", err)
	}

	out := make([]ViewPreset, 0, len(raw.Presets))
	for i, p := range raw.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset: entry %d missing required field 'name'", i)
		}
		out = append(out, prNormalize(p))
	}
	return out, nil
}

// LoadFile reads presets from a TOML file on disk and merges them over
// the builtins. User presets shadow builtins with the same name.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("preset: read %s: %w", path, err)
	}
	loaded, err := LoadFromTOML(data)
	if err != nil {
		return err
	}
	for _, p := range loaded {
		builtins[p.Name] = p
	}
	return nil
}

// SaveTOML serializes presets to TOML, suitable for a user preset file.
func SaveTOML(presets []ViewPreset) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(prTomlFile{Presets: presets}); err != nil {
		return nil, fmt.Errorf("preset: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}
