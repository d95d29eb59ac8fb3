package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the viewer and engine settings read from config.yaml. Every
// field is optional; zero values select the compiled-in defaults.
type Config struct {
	// HiddenTools are function names excluded from the reconciled list and
	// rendered inline instead. Either encoding's spelling works.
	HiddenTools []string `yaml:"hidden_tools,omitempty"`
	// ResultBufferCap bounds how many orphaned tool results are held while
	// waiting for their call to arrive.
	ResultBufferCap int `yaml:"result_buffer_cap,omitempty"`
	// DatabasePath overrides the default transcript store location.
	DatabasePath string `yaml:"database_path,omitempty"`
}

func Default() *Config {
	return &Config{
		HiddenTools:     []string{"send_message", "wait_for_user"},
		ResultBufferCap: 64,
	}
}

// Load reads path and overlays it onto the defaults. A missing file is not
// an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, err
	}
	if len(overlay.HiddenTools) > 0 {
		cfg.HiddenTools = overlay.HiddenTools
	}
	if overlay.ResultBufferCap > 0 {
		cfg.ResultBufferCap = overlay.ResultBufferCap
	}
	if overlay.DatabasePath != "" {
		cfg.DatabasePath = overlay.DatabasePath
	}
	return cfg, nil
}
