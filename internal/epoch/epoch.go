// Package epoch converts between calendar instants, Julian days and
// simulation time. Calendar fields are interpreted as UTC on the proleptic
// Gregorian calendar.
package epoch

import (
	"fmt"
	"math"
	"time"
)

const (
	// SecondsPerDay is the length of a Julian day in seconds.
	SecondsPerDay = 86400.0
	// J2000Day is the Julian day of 2000-01-01 12:00:00.
	J2000Day = 2451545.0
	// DaysPerCentury is the length of a Julian century in days.
	DaysPerCentury = 36525.0
)

// Epoch is an immutable calendar instant.
type Epoch struct {
	Year   int     `yaml:"year" toml:"year" json:"year"`
	Month  int     `yaml:"month" toml:"month" json:"month"`
	Day    int     `yaml:"day" toml:"day" json:"day"`
	Hour   int     `yaml:"hour,omitempty" toml:"hour,omitempty" json:"hour,omitempty"`
	Minute int     `yaml:"minute,omitempty" toml:"minute,omitempty" json:"minute,omitempty"`
	Second float64 `yaml:"second,omitempty" toml:"second,omitempty" json:"second,omitempty"`
	Label  string  `yaml:"label,omitempty" toml:"label,omitempty" json:"label,omitempty"`
	Source string  `yaml:"source,omitempty" toml:"source,omitempty" json:"source,omitempty"`
}

// J2000 returns the standard J2000.0 reference epoch.
func J2000() Epoch {
	return Epoch{Year: 2000, Month: 1, Day: 1, Hour: 12, Label: "J2000.0"}
}

func New(year, month, day, hour, minute int, second float64) Epoch {
	return Epoch{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}
}

// IsZero reports whether no calendar date has been set.
func (e Epoch) IsZero() bool {
	return e.Year == 0 && e.Month == 0 && e.Day == 0
}

// WithLabel returns a copy carrying a human-readable label and source.
func (e Epoch) WithLabel(label, source string) Epoch {
	e.Label = label
	e.Source = source
	return e
}

// JulianDay returns the Julian day number including the day fraction.
func (e Epoch) JulianDay() float64 {
	y := float64(e.Year)
	m := float64(e.Month)
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	frac := (float64(e.Hour)*3600 + float64(e.Minute)*60 + e.Second) / SecondsPerDay
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(e.Day) + b - 1524.5 + frac
}

// FromJulianDay converts a Julian day back into calendar fields.
// Seconds are rounded to the millisecond, the resolution a float64
// Julian day can carry.
func FromJulianDay(jd float64) Epoch {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	ee := math.Floor((b - d) / 30.6001)

	day := int(b - d - math.Floor(30.6001*ee))
	month := int(ee - 1)
	if ee >= 14 {
		month = int(ee - 13)
	}
	year := int(c - 4716)
	if month <= 2 {
		year = int(c - 4715)
	}

	secs := math.Round(f*SecondsPerDay*1e3) / 1e3
	if secs >= SecondsPerDay {
		// rounding pushed us into the next day
		return FromJulianDay(z + 0.5)
	}
	hour := int(secs / 3600)
	secs -= float64(hour) * 3600
	minute := int(secs / 60)
	secs -= float64(minute) * 60

	return Epoch{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: secs}
}

// SecondsSince returns e - o in seconds.
func (e Epoch) SecondsSince(o Epoch) float64 {
	return (e.JulianDay() - o.JulianDay()) * SecondsPerDay
}

// Add returns the epoch shifted by the given number of seconds.
// Label and source are not carried over.
func (e Epoch) Add(seconds float64) Epoch {
	return FromJulianDay(e.JulianDay() + seconds/SecondsPerDay)
}

// Centuries returns Julian centuries elapsed since J2000.
func (e Epoch) Centuries() float64 {
	return (e.JulianDay() - J2000Day) / DaysPerCentury
}

// Time converts the epoch into a UTC time.Time.
func (e Epoch) Time() time.Time {
	whole := math.Floor(e.Second)
	nanos := int(math.Round((e.Second - whole) * 1e9))
	return time.Date(e.Year, time.Month(e.Month), e.Day, e.Hour, e.Minute, int(whole), nanos, time.UTC)
}

// FromTime builds an epoch from a time.Time, normalised to UTC.
func FromTime(t time.Time) Epoch {
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return Epoch{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute(), Second: sec}
}

// Parse accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func Parse(s string) (Epoch, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Epoch{}, fmt.Errorf("epoch: cannot parse %q", s)
}

func (e Epoch) String() string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%06.3fZ", e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Second)
	if e.Label != "" {
		s += " (" + e.Label + ")"
	}
	return s
}
