package epoch

import (
	"math"
	"testing"
	"time"
)

func TestJulianDay(t *testing.T) {
	tests := []struct {
		name string
		e    Epoch
		jd   float64
	}{
		{"j2000", J2000(), 2451545.0},
		{"sputnik", New(1957, 10, 4, 19, 26, 24), 2436116.31},
		{"unix epoch", New(1970, 1, 1, 0, 0, 0), 2440587.5},
		{"leap day", New(2024, 2, 29, 0, 0, 0), 2460369.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.JulianDay(); math.Abs(got-tt.jd) > 1e-6 {
				t.Errorf("JulianDay() = %.6f, want %.6f", got, tt.jd)
			}
		})
	}
}

func TestFromJulianDay_RoundTrip(t *testing.T) {
	cases := []Epoch{
		J2000(),
		New(1977, 9, 5, 12, 56, 0),
		New(2026, 10, 16, 23, 59, 30),
		New(1900, 3, 1, 6, 0, 0),
	}

	for _, want := range cases {
		got := FromJulianDay(want.JulianDay())
		if got.Year != want.Year || got.Month != want.Month || got.Day != want.Day ||
			got.Hour != want.Hour || got.Minute != want.Minute {
			t.Errorf("round trip of %v gave %v", want, got)
		}
		if math.Abs(got.Second-want.Second) > 1e-3 {
			t.Errorf("round trip seconds: got %f, want %f", got.Second, want.Second)
		}
	}
}

func TestSecondsSince(t *testing.T) {
	a := J2000()
	b := New(2000, 1, 2, 12, 0, 0)

	if got := b.SecondsSince(a); math.Abs(got-SecondsPerDay) > 1e-3 {
		t.Errorf("SecondsSince = %f, want %f", got, SecondsPerDay)
	}
	if got := a.SecondsSince(b); math.Abs(got+SecondsPerDay) > 1e-3 {
		t.Errorf("SecondsSince reversed = %f, want %f", got, -SecondsPerDay)
	}
}

func TestAdd(t *testing.T) {
	e := New(2020, 12, 31, 23, 0, 0).Add(7200)
	if e.Year != 2021 || e.Month != 1 || e.Day != 1 || e.Hour != 1 {
		t.Errorf("Add crossed year boundary incorrectly: %v", e)
	}
}

func TestTimeConversion(t *testing.T) {
	ts := time.Date(2015, 7, 14, 11, 49, 57, 0, time.UTC)
	e := FromTime(ts)
	if !e.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", e.Time(), ts)
	}

	local := ts.In(time.FixedZone("X", 3*3600))
	if FromTime(local) != e {
		t.Error("FromTime did not normalise to UTC")
	}
}

func TestParse(t *testing.T) {
	e, err := Parse("2015-07-14")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if e.Year != 2015 || e.Month != 7 || e.Day != 14 {
		t.Errorf("unexpected epoch %v", e)
	}

	if _, err := Parse("not a date"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestCenturies(t *testing.T) {
	if c := J2000().Centuries(); c != 0 {
		t.Errorf("Centuries at J2000 = %f", c)
	}
}
