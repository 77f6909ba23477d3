// ABOUTME: Summary and day-type grouped statistics.
// ABOUTME: Empty series yield an explicit no-data result instead of NaN.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/harperreed/bptrack/internal/models"
)

// Extent holds the mean, max and min of one reading component.
type Extent struct {
	Mean float64 `json:"mean"`
	Max  int     `json:"max"`
	Min  int     `json:"min"`
}

// Summary is the overall statistic over a series.
type Summary struct {
	Count     int     `json:"count"`
	Systolic  Extent  `json:"systolic"`
	Diastolic Extent  `json:"diastolic"`
	Pulse     *Extent `json:"pulse,omitempty"` // nil when no reading has a pulse
	PulseN    int     `json:"pulse_count"`
}

// GroupStats holds per-day-type means.
type GroupStats struct {
	Count     int      `json:"count"`
	Systolic  float64  `json:"systolic"`
	Diastolic float64  `json:"diastolic"`
	Pulse     *float64 `json:"pulse,omitempty"` // nil when no reading in the group has a pulse
	PulseN    int      `json:"pulse_count"`
}

// Point is one sample of the systolic/diastolic trend.
type Point struct {
	Date      time.Time
	Systolic  int
	Diastolic int
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date      string `json:"date"`
		Systolic  int    `json:"systolic"`
		Diastolic int    `json:"diastolic"`
	}{p.Date.Format(models.DateLayout), p.Systolic, p.Diastolic})
}

// Summarize computes overall statistics. The boolean is false for an empty
// series, in which case the Summary is the zero value and must not be displayed as numbers.
func Summarize(series []*models.Measurement) (Summary, bool) {
	var sys, dia, pulse accumulator
	for _, m := range series {
		if m == nil {
			continue
		}
		sys.add(m.Systolic)
		dia.add(m.Diastolic)
		if m.Pulse != nil {
			pulse.add(*m.Pulse)
		}
	}
	if sys.n == 0 {
		return Summary{}, false
	}

	s := Summary{
		Count:     sys.n,
		Systolic:  sys.extent(),
		Diastolic: dia.extent(),
		PulseN:    pulse.n,
	}
	if pulse.n > 0 {
		e := pulse.extent()
		s.Pulse = &e
	}
	return s, true
}

// GroupByDayType computes mean systolic, diastolic and pulse per day type.
// Only day types with at least one reading appear in the result.
func GroupByDayType(series []*models.Measurement) map[DayType]GroupStats {
	type group struct{ sys, dia, pulse accumulator }
	groups := map[DayType]*group{}

	for _, m := range series {
		if m == nil {
			continue
		}
		dt := Classify(m.Date)
		g, ok := groups[dt]
		if !ok {
			g = &group{}
			groups[dt] = g
		}
		g.sys.add(m.Systolic)
		g.dia.add(m.Diastolic)
		if m.Pulse != nil {
			g.pulse.add(*m.Pulse)
		}
	}

	result := make(map[DayType]GroupStats, len(groups))
	for dt, g := range groups {
		gs := GroupStats{
			Count:     g.sys.n,
			Systolic:  g.sys.mean(),
			Diastolic: g.dia.mean(),
			PulseN:    g.pulse.n,
		}
		if g.pulse.n > 0 {
			p := g.pulse.mean()
			gs.Pulse = &p
		}
		result[dt] = gs
	}
	return result
}

// Trend returns the chronological systolic/diastolic series for charting.
func Trend(series []*models.Measurement) []Point {
	sorted := Chronological(series)
	points := make([]Point, len(sorted))
	for i, m := range sorted {
		points[i] = Point{Date: m.Date, Systolic: m.Systolic, Diastolic: m.Diastolic}
	}
	return points
}

type accumulator struct {
	n, sum   int
	min, max int
}

func (a *accumulator) add(v int) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.n++
	a.sum += v
}

// mean must only be called with n > 0.
func (a *accumulator) mean() float64 {
	return float64(a.sum) / float64(a.n)
}

func (a *accumulator) extent() Extent {
	return Extent{Mean: a.mean(), Max: a.max, Min: a.min}
}
