package recognition

import (
	"fmt"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/marker"
)

// Load reads a marker set from a YAML definition file and builds a
// Recognizer for it. An empty configPath selects the default configuration
// with the marker length taken from the set.
func Load(definitionPath, configPath string) (*Recognizer, error) {
	set, err := marker.LoadYAML(definitionPath)
	if err != nil {
		return nil, err
	}

	cfg := config.WithMarkerLength(set.MarkerWidth)
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	r, err := NewRecognizer(cfg, set)
	if err != nil {
		return nil, fmt.Errorf("failed to build recognizer for %s: %w", definitionPath, err)
	}
	return r, nil
}
