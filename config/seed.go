package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadSeed decodes the file at path (YAML or JSON, chosen by extension)
// into out. Keys match struct field names case-insensitively.
func LoadSeed(path string, out any) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read seed file %s: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return nil
}
