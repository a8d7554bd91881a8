package catalog

import (
	"sort"

	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/kepler"
)

// Planetary elements are the J2000 mean elements of Standish, "Keplerian
// Elements for Approximate Positions of the Major Planets", with ω = ϖ - Ω
// and M = L - ϖ. Satellite elements are mean values relative to the
// parent. Masses are IAU nominal values.

const jplSource = "JPL SSD, Standish (1992) mean elements"

func planet(id dynamo.BodyID, name string, mass, aAU, e, i, node, peri, m float64, rot *kepler.Rotation) Entry {
	return Entry{
		ID:   id,
		Name: name,
		Mass: mass,
		Elements: &kepler.Elements{
			SemiMajorAxis: aAU * dynamo.AU,
			Eccentricity:  e,
			Inclination:   i,
			Node:          node,
			Periapsis:     peri,
			MeanAnomaly:   m,
			Epoch:         presetEpoch(),
			Wrt:           "sun",
			Rotation:      rot,
		},
		Influences: []dynamo.BodyID{"sun"},
	}
}

func moon(id dynamo.BodyID, name string, parent dynamo.BodyID, mass, aKm, e, i, node, peri, m float64, rot *kepler.Rotation) Entry {
	return Entry{
		ID:   id,
		Name: name,
		Mass: mass,
		Elements: &kepler.Elements{
			SemiMajorAxis: aKm * 1e3,
			Eccentricity:  e,
			Inclination:   i,
			Node:          node,
			Periapsis:     peri,
			MeanAnomaly:   m,
			Epoch:         presetEpoch(),
			Wrt:           parent,
			Rotation:      rot,
		},
		Influences: []dynamo.BodyID{"sun", parent},
	}
}

func spin(tilt, periodHours, initial float64) *kepler.Rotation {
	return &kepler.Rotation{Tilt: tilt, Period: periodHours * 3600, Initial: initial}
}

func presetEpoch() epoch.Epoch {
	return epoch.J2000().WithLabel("J2000.0", jplSource)
}

// presetBodies builds every body known to the presets. A fresh map is
// returned on each call.
func presetBodies() map[dynamo.BodyID]Entry {
	bodies := []Entry{
		{ID: "sun", Name: "Sun", Mass: 1.98847e30},
		planet("mercury", "Mercury", 3.3011e23, 0.38709927, 0.20563593, 7.00497902, 48.33076593, 29.12703035, 174.79252722, spin(0.03, 1407.6, 0)),
		planet("venus", "Venus", 4.8675e24, 0.72333566, 0.00677672, 3.39467605, 76.67984255, 54.92262463, 50.37663232, spin(177.36, -5832.5, 0)),
		planet("earth", "Earth", 5.9722e24, 1.00000261, 0.01671123, 0, 0, 102.93768193, 357.52688973, spin(23.44, 23.9345, 280.46)),
		planet("mars", "Mars", 6.4171e23, 1.52371034, 0.09339410, 1.84969142, 49.55953891, 286.50316850, 19.39019754, spin(25.19, 24.6229, 0)),
		planet("jupiter", "Jupiter", 1.89819e27, 5.20288700, 0.04838624, 1.30439695, 100.47390909, 274.25457074, 19.66796068, spin(3.13, 9.925, 0)),
		planet("saturn", "Saturn", 5.6834e26, 9.53667594, 0.05386179, 2.48599187, 113.66242448, 338.93645383, 317.35536592, spin(26.73, 10.656, 0)),
		planet("uranus", "Uranus", 8.6810e25, 19.18916464, 0.04725744, 0.77263783, 74.01692503, 96.93735127, 142.28382821, spin(97.77, -17.24, 0)),
		planet("neptune", "Neptune", 1.02413e26, 30.06992276, 0.00859048, 1.77004347, 131.78422574, 273.18053653, 259.91520804, spin(28.32, 16.11, 0)),
		moon("moon", "Moon", "earth", 7.342e22, 384399, 0.0549, 5.145, 125.08, 318.15, 135.27, spin(6.68, 655.72, 0)),
		moon("io", "Io", "jupiter", 8.931938e22, 421700, 0.0041, 0.050, 43.977, 84.129, 342.021, nil),
		moon("europa", "Europa", "jupiter", 4.799844e22, 671034, 0.0090, 0.470, 219.106, 88.970, 171.016, nil),
		moon("ganymede", "Ganymede", "jupiter", 1.4819e23, 1070412, 0.0013, 0.200, 63.552, 192.417, 317.540, nil),
		moon("callisto", "Callisto", "jupiter", 1.075938e23, 1882709, 0.0074, 0.192, 298.848, 52.643, 181.408, nil),
	}

	m := make(map[dynamo.BodyID]Entry, len(bodies))
	for _, b := range bodies {
		m[b.ID] = b
	}
	return m
}

func presetMembers(name string) []dynamo.BodyID {
	switch name {
	case "earth-moon":
		return []dynamo.BodyID{"sun", "earth", "moon"}
	case "inner":
		return []dynamo.BodyID{"sun", "mercury", "venus", "earth", "moon", "mars"}
	case "jovian":
		return []dynamo.BodyID{"sun", "jupiter", "io", "europa", "ganymede", "callisto"}
	case "solar":
		return []dynamo.BodyID{"sun", "mercury", "venus", "earth", "moon", "mars", "jupiter", "saturn", "uranus", "neptune"}
	default:
		return nil
	}
}

// Preset returns a freshly built catalog, or nil for an unknown name.
func Preset(name string) *Catalog {
	members := presetMembers(name)
	if members == nil {
		return nil
	}
	bodies := presetBodies()
	c := &Catalog{Name: name, Epoch: presetEpoch(), Entries: make([]Entry, 0, len(members))}
	for _, id := range members {
		c.Entries = append(c.Entries, bodies[id])
	}
	return c
}

// PresetBody returns a single preset body, for adding to a running
// simulation.
func PresetBody(id dynamo.BodyID) (Entry, bool) {
	e, ok := presetBodies()[id]
	return e, ok
}

// ListPresets returns the preset names in alphabetical order.
func ListPresets() []string {
	names := []string{"earth-moon", "inner", "jovian", "solar"}
	sort.Strings(names)
	return names
}
