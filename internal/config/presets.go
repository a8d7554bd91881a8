package config

import "sort"

// profiles are named bundles of pacing and integration settings, applied
// over a loaded config with ApplyProfile. Built fresh on every call.
func profiles() map[string]func(*Config) {
	return map[string]func(*Config){
		"realtime": func(c *Config) {
			c.Speed = 1
			c.MaxStep = 60
		},
		"day-per-second": func(c *Config) {
			c.Speed = 86400
		},
		"year-per-minute": func(c *Config) {
			c.Speed = 365.25 * 86400 / 60
			c.MaxStep = DefaultMaxStep
		},
		"precise": func(c *Config) {
			c.Integrator = "leapfrog"
			c.Precision = 128
			c.MaxStep = 300
		},
		"fast": func(c *Config) {
			c.Integrator = "euler"
			c.Precision = 0
			c.MaxStep = 3600
		},
	}
}

// ApplyProfile overlays a named profile. It reports false for unknown
// names and leaves cfg untouched.
func ApplyProfile(cfg *Config, name string) bool {
	apply, ok := profiles()[name]
	if !ok {
		return false
	}
	apply(cfg)
	return true
}

func ListProfiles() []string {
	p := profiles()
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
