// Package timeseries gives strategists and configuration loaders a home
// for forward-looking price/yield data: a small Series capability
// interface backed by an in-memory table and a file loader.
package timeseries

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"wholesale-dispatch/internal/model"
)

// Series is a time-indexed scalar signal (price, forecast yield, sample
// fraction) a strategist or config loader can query three ways: linear
// interpolation between the surrounding points, or step-hold lookup in
// either direction.
type Series interface {
	// ValueLinear interpolates linearly between the two points surrounding
	// t. Returns ok=false if t falls outside the series' covered range.
	ValueLinear(t model.TimeStamp) (float64, bool)
	// ValueEarlierEqual returns the value of the last point at or before t
	// (step-hold lookup, forward-filled). Returns ok=false if t is before
	// the series' first point.
	ValueEarlierEqual(t model.TimeStamp) (float64, bool)
	// ValueLaterEqual returns the value of the first point at or after t.
	// Returns ok=false if t is after the series' last point.
	ValueLaterEqual(t model.TimeStamp) (float64, bool)
}

// point is one (TimeStamp, value) sample.
type point struct {
	t model.TimeStamp
	v float64
}

// TableSeries is an in-memory, sorted time series.
type TableSeries struct {
	points []point
}

// NewTableSeries builds a TableSeries from parallel timestamp/value
// slices, sorting them by timestamp.
func NewTableSeries(timestamps []model.TimeStamp, values []float64) (*TableSeries, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps but %d values", model.ErrConfiguration, len(timestamps), len(values))
	}
	pts := make([]point, len(timestamps))
	for i := range timestamps {
		pts[i] = point{t: timestamps[i], v: values[i]}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t.Before(pts[j].t) })
	return &TableSeries{points: pts}, nil
}

func (s *TableSeries) ValueLinear(t model.TimeStamp) (float64, bool) {
	if len(s.points) == 0 {
		return 0, false
	}
	if t.Before(s.points[0].t) || t.After(s.points[len(s.points)-1].t) {
		return 0, false
	}
	idx := sort.Search(len(s.points), func(i int) bool { return !s.points[i].t.Before(t) })
	if idx < len(s.points) && s.points[idx].t == t {
		return s.points[idx].v, true
	}
	if idx == 0 {
		return s.points[0].v, true
	}
	lo, hi := s.points[idx-1], s.points[idx]
	span := hi.t.Sub(lo.t)
	if span == 0 {
		return lo.v, true
	}
	frac := float64(t.Sub(lo.t)) / float64(span)
	return lo.v + frac*(hi.v-lo.v), true
}

func (s *TableSeries) ValueEarlierEqual(t model.TimeStamp) (float64, bool) {
	if len(s.points) == 0 || t.Before(s.points[0].t) {
		return 0, false
	}
	idx := sort.Search(len(s.points), func(i int) bool { return s.points[i].t.After(t) })
	if idx == 0 {
		return 0, false
	}
	return s.points[idx-1].v, true
}

func (s *TableSeries) ValueLaterEqual(t model.TimeStamp) (float64, bool) {
	if len(s.points) == 0 {
		return 0, false
	}
	idx := sort.Search(len(s.points), func(i int) bool { return !s.points[i].t.Before(t) })
	if idx >= len(s.points) {
		return 0, false
	}
	return s.points[idx].v, true
}

// LoadFileSeries reads a two-column CSV ("tick,value") into a TableSeries.
func LoadFileSeries(path string) (*TableSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var timestamps []model.TimeStamp
	var values []float64
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s: row %d: expected 2 columns, got %d", path, i, len(rec))
		}
		ticks, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		val, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		timestamps = append(timestamps, model.TimeStamp(ticks))
		values = append(values, val)
	}
	return NewTableSeries(timestamps, values)
}
