package signals

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules holds the detector thresholds.
type Rules struct {
	Window time.Duration `yaml:"window"`
	// BrandMin and LocationMin are exclusive lower bounds; GapMin is inclusive.
	BrandMin    int `yaml:"brand_min"`
	LocationMin int `yaml:"location_min"`
	GapMin      int `yaml:"gap_min"`
	TopN        int `yaml:"top_n"`
	// EventNames are the user events that count as interactions.
	EventNames []string `yaml:"event_names"`
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		Window:      7 * 24 * time.Hour,
		BrandMin:    10,
		LocationMin: 15,
		GapMin:      3,
		TopN:        5,
		EventNames:  []string{"car_view", "contact_click", "test_drive_request"},
	}
}

// LoadRules overlays the YAML file at path on the defaults. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read market signal rules: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse market signal rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate rejects thresholds the detector cannot work with.
func (r Rules) Validate() error {
	switch {
	case r.Window <= 0:
		return fmt.Errorf("market signal rules: window must be positive")
	case r.BrandMin < 0 || r.LocationMin < 0 || r.GapMin < 1:
		return fmt.Errorf("market signal rules: thresholds must be non-negative and gap_min at least 1")
	case r.TopN < 1:
		return fmt.Errorf("market signal rules: top_n must be at least 1")
	case len(r.EventNames) == 0:
		return fmt.Errorf("market signal rules: event_names must not be empty")
	}
	return nil
}
