// ABOUTME: Aggregation over a series of blood-pressure measurements.
// ABOUTME: Derives weekday/day-type labels, summary and grouped statistics, and the latest reading.
package analytics

import (
	"sort"
	"time"

	"github.com/harperreed/bptrack/internal/models"
)

// DayType classifies a date by calendar weekday.
// "holiday" means Saturday or Sunday; public holidays are not considered.
type DayType string

const (
	Workday DayType = "workday"
	Holiday DayType = "holiday"
)

// DayTypes lists the day types in display order.
var DayTypes = []DayType{Workday, Holiday}

// Derived is a measurement annotated with its weekday and day type.
type Derived struct {
	models.Measurement
	WeekdayIndex int // 0=Monday..6=Sunday
	DayType      DayType
}

// WeekdayIndex returns the Monday-based weekday index of t.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Classify returns the day type for t.
func Classify(t time.Time) DayType {
	if WeekdayIndex(t) >= 5 {
		return Holiday
	}
	return Workday
}

// Chronological returns a copy of series sorted by date ascending, id ascending.
func Chronological(series []*models.Measurement) []*models.Measurement {
	sorted := make([]*models.Measurement, 0, len(series))
	for _, m := range series {
		if m != nil {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return before(sorted[i], sorted[j])
	})
	return sorted
}

// Annotate derives weekday and day type for every measurement, in chronological order.
func Annotate(series []*models.Measurement) []Derived {
	sorted := Chronological(series)
	derived := make([]Derived, len(sorted))
	for i, m := range sorted {
		derived[i] = derive(m)
	}
	return derived
}

// Latest returns the chronologically last measurement regardless of input order.
// Same-date records resolve to the highest id.
func Latest(series []*models.Measurement) (Derived, bool) {
	var latest *models.Measurement
	for _, m := range series {
		if m == nil {
			continue
		}
		if latest == nil || before(latest, m) {
			latest = m
		}
	}
	if latest == nil {
		return Derived{}, false
	}
	return derive(latest), true
}

func derive(m *models.Measurement) Derived {
	return Derived{Measurement: *m, WeekdayIndex: WeekdayIndex(m.Date), DayType: Classify(m.Date)}
}

func before(a, b *models.Measurement) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

// DerivedRecord is the wire form of a Derived measurement.
type DerivedRecord struct {
	models.Record
	WeekdayIndex int     `json:"weekday"`
	DayType      DayType `json:"day_type"`
}

// Record converts d to its wire form.
func (d Derived) Record() DerivedRecord {
	return DerivedRecord{Record: d.Measurement.Record(), WeekdayIndex: d.WeekdayIndex, DayType: d.DayType}
}
