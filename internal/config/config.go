// Package config loads the ambient match/server configuration the
// distilled spec never names but a dedicated server operator would want
// without recompiling: the app version gate, LAN scanner port, turn
// duration, and disconnect thresholds. Grounded on
// niceyeti-tabular/tabular/reinforcement/learning.go's FromYaml: viper
// reads the file, the result is re-marshaled through yaml.v3 into our own
// struct so viper's own decode quirks never leak past this package.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is every tunable this repository's ambient stack needs.
type Config struct {
	AppVersion string `yaml:"app_version"`
	LobbyName  string `yaml:"lobby_name"`

	ScannerPort int `yaml:"scanner_port"`

	TurnDuration        int `yaml:"turn_duration"`
	DisconnectThreshold int `yaml:"disconnect_threshold"`
}

// Default returns the built-in configuration used when no file is given
// or the file is missing, so a solo run never needs a config file at all.
func Default() Config {
	return Config{
		AppVersion:          "1.0.0",
		LobbyName:           "Gold Rush Lobby",
		ScannerPort:         6529,
		TurnDuration:        4,
		DisconnectThreshold: 30,
	}
}

// Load reads path as YAML via viper and overlays it onto Default(),
// falling back to built-in defaults entirely if path does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	raw, err := yaml.Marshal(vp.AllSettings())
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
