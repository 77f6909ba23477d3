// ABOUTME: Tests for day-type derivation and aggregate statistics.
// ABOUTME: Pins ordering, latest-record selection, grouping, and the empty-series sentinel.
package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/harperreed/bptrack/internal/models"
)

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func measurement(id int64, date string, sys, dia int) *models.Measurement {
	m := models.NewMeasurement(day(date), sys, dia)
	m.ID = id
	return m
}

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		date string
		want int
		dt   DayType
	}{
		{"2025-01-06", 0, Workday}, // Monday
		{"2025-01-10", 4, Workday}, // Friday
		{"2025-01-11", 5, Holiday}, // Saturday
		{"2025-01-12", 6, Holiday}, // Sunday
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := WeekdayIndex(day(tt.date)); got != tt.want {
				t.Errorf("WeekdayIndex(%s) = %d, want %d", tt.date, got, tt.want)
			}
			if got := Classify(day(tt.date)); got != tt.dt {
				t.Errorf("Classify(%s) = %s, want %s", tt.date, got, tt.dt)
			}
		})
	}
}

func TestAnnotateChronological(t *testing.T) {
	series := []*models.Measurement{
		measurement(5, "2025-01-12", 130, 85),
		measurement(2, "2025-01-10", 120, 80),
		measurement(4, "2025-01-10", 125, 82),
		measurement(1, "2025-01-11", 118, 78),
	}

	got := Annotate(series)
	wantIDs := []int64{2, 4, 1, 5}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d records, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: id %d, want %d", i, got[i].ID, id)
		}
	}
	if got[0].DayType != Workday || got[0].WeekdayIndex != 4 {
		t.Errorf("Friday annotated as %s/%d", got[0].DayType, got[0].WeekdayIndex)
	}
	if got[3].DayType != Holiday || got[3].WeekdayIndex != 6 {
		t.Errorf("Sunday annotated as %s/%d", got[3].DayType, got[3].WeekdayIndex)
	}

	// input is untouched
	if series[0].ID != 5 {
		t.Error("Annotate must not reorder its input")
	}
}

func TestLatest(t *testing.T) {
	series := []*models.Measurement{
		measurement(1, "2025-01-01", 120, 80),
		measurement(2, "2025-01-03", 121, 81),
		measurement(3, "2025-01-02", 122, 82),
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {2, 0, 1}}
	for _, order := range orders {
		shuffled := make([]*models.Measurement, len(order))
		for i, idx := range order {
			shuffled[i] = series[idx]
		}
		got, ok := Latest(shuffled)
		if !ok {
			t.Fatal("Latest returned no record")
		}
		if got.ID != 2 || got.DateString() != "2025-01-03" {
			t.Errorf("order %v: Latest = (%d, %s), want (2, 2025-01-03)", order, got.ID, got.DateString())
		}
	}
}

func TestLatestSameDateUsesHighestID(t *testing.T) {
	series := []*models.Measurement{
		measurement(7, "2025-03-01", 130, 85),
		measurement(3, "2025-03-01", 120, 80),
	}
	got, ok := Latest(series)
	if !ok || got.ID != 7 {
		t.Errorf("Latest = %d, want 7", got.ID)
	}
}

func TestLatestEmpty(t *testing.T) {
	if _, ok := Latest(nil); ok {
		t.Error("expected no latest record for empty series")
	}
}

func TestSummarize(t *testing.T) {
	series := []*models.Measurement{
		measurement(1, "2025-01-01", 120, 80).WithPulse(70),
		measurement(2, "2025-01-02", 140, 90),
		measurement(3, "2025-01-03", 130, 70).WithPulse(80),
	}

	s, ok := Summarize(series)
	if !ok {
		t.Fatal("expected data")
	}
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Systolic.Mean != 130 || s.Systolic.Max != 140 || s.Systolic.Min != 120 {
		t.Errorf("Systolic = %+v", s.Systolic)
	}
	if s.Diastolic.Mean != 80 || s.Diastolic.Max != 90 || s.Diastolic.Min != 70 {
		t.Errorf("Diastolic = %+v", s.Diastolic)
	}
	if s.Pulse == nil || s.Pulse.Mean != 75 || s.PulseN != 2 {
		t.Errorf("Pulse = %+v (n=%d), want mean 75 over 2", s.Pulse, s.PulseN)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	for _, series := range [][]*models.Measurement{nil, {}} {
		s, ok := Summarize(series)
		if ok {
			t.Error("expected no-data result for empty series")
		}
		if math.IsNaN(s.Systolic.Mean) || math.IsNaN(s.Diastolic.Mean) {
			t.Error("no-data result must not carry NaN")
		}
		if s.Count != 0 || s.Pulse != nil {
			t.Errorf("expected zero Summary, got %+v", s)
		}
	}
}

func TestGroupByDayType(t *testing.T) {
	series := []*models.Measurement{
		measurement(1, "2025-01-11", 130, 85).WithPulse(70), // Saturday
		measurement(2, "2025-01-06", 120, 80),               // Monday, no pulse
	}

	groups := GroupByDayType(series)

	holiday, ok := groups[Holiday]
	if !ok {
		t.Fatal("expected holiday group")
	}
	if holiday.Pulse == nil || *holiday.Pulse != 70 {
		t.Errorf("holiday pulse = %v, want 70", holiday.Pulse)
	}

	workday, ok := groups[Workday]
	if !ok {
		t.Fatal("expected workday group")
	}
	if workday.Pulse != nil {
		t.Errorf("workday pulse = %v, want no value", *workday.Pulse)
	}
	if workday.PulseN != 0 {
		t.Errorf("workday pulse count = %d, want 0", workday.PulseN)
	}
	if workday.Systolic != 120 || workday.Diastolic != 80 || workday.Count != 1 {
		t.Errorf("workday = %+v", workday)
	}
}

func TestGroupByDayTypeAbsentPulseNotZero(t *testing.T) {
	series := []*models.Measurement{
		measurement(1, "2025-01-06", 120, 80).WithPulse(60),
		measurement(2, "2025-01-07", 124, 84),
		measurement(3, "2025-01-08", 122, 82).WithPulse(80),
	}

	groups := GroupByDayType(series)
	w := groups[Workday]
	if w.Pulse == nil || *w.Pulse != 70 {
		t.Errorf("workday pulse mean = %v, want 70 (absent pulse excluded)", w.Pulse)
	}
	if _, ok := groups[Holiday]; ok {
		t.Error("holiday group should be absent when there are no weekend readings")
	}
}

func TestTrend(t *testing.T) {
	series := []*models.Measurement{
		measurement(2, "2025-01-02", 122, 82),
		measurement(1, "2025-01-01", 120, 80),
	}
	points := Trend(series)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Date.Equal(day("2025-01-01")) || points[1].Systolic != 122 {
		t.Errorf("unexpected trend: %+v", points)
	}
}

func TestWireForms(t *testing.T) {
	d, ok := Latest([]*models.Measurement{measurement(7, "2025-01-11", 130, 85).WithPulse(66)})
	if !ok {
		t.Fatal("expected latest")
	}
	data, err := json.Marshal(d.Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":7,"date":"2025-01-11","systolic":130,"diastolic":85,"pulse":66,"note":null,"weekday":5,"day_type":"holiday"}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}

	data, err = json.Marshal(Point{Date: day("2025-01-02"), Systolic: 120, Diastolic: 80})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"date":"2025-01-02","systolic":120,"diastolic":80}` {
		t.Errorf("unexpected point JSON: %s", data)
	}
}
