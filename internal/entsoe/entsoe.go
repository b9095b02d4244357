// Package entsoe decodes ENTSO-E day-ahead price documents, grounded on
// devskill-org-miners-scheduler/entsoe: the same Publication_MarketDocument
// XML shape, custom TimeInterval/Period unmarshaling for ENTSO-E's
// non-standard time and ISO 8601 duration formats, and position-based
// point lookup. Adapted to hand its points off as an
// internal/timeseries.TableSeries instead of a bespoke Lookup*ByTime
// method set, so a price-taker strategist can consume ENTSO-E data
// through the same Series interface as any other forecast source.
package entsoe

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"wholesale-dispatch/internal/model"
	"wholesale-dispatch/internal/timeseries"
)

// PublicationMarketDocument is the root element of an ENTSO-E day-ahead
// price document.
type PublicationMarketDocument struct {
	XMLName    xml.Name     `xml:"Publication_MarketDocument"`
	MRID       string       `xml:"mRID"`
	TimeSeries []TimeSeries `xml:"TimeSeries"`
}

// TimeSeries is one ENTSO-E TimeSeries block; only the Period this package
// needs is decoded.
type TimeSeries struct {
	MRID   string `xml:"mRID"`
	Period Period `xml:"Period"`
}

// Period is a contiguous run of price Points at a fixed Resolution
// starting at TimeInterval.Start.
type Period struct {
	TimeInterval TimeInterval
	Resolution   time.Duration
	Points       []Point
}

// UnmarshalXML decodes Period, translating ENTSO-E's ISO 8601 resolution
// string ("PT60M", "PT15M") into a time.Duration.
func (p *Period) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var aux struct {
		TimeInterval TimeInterval `xml:"timeInterval"`
		Resolution   string       `xml:"resolution"`
		Points       []Point      `xml:"Point"`
	}
	if err := d.DecodeElement(&aux, &start); err != nil {
		return err
	}
	res, err := parseISO8601Duration(aux.Resolution)
	if err != nil {
		return fmt.Errorf("entsoe: resolution %q: %w", aux.Resolution, err)
	}
	p.TimeInterval = aux.TimeInterval
	p.Resolution = res
	p.Points = aux.Points
	return nil
}

// TimeInterval is a [Start, End) wall-clock window.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// UnmarshalXML decodes TimeInterval, trying ENTSO-E's several observed
// datetime formats (with and without seconds, with and without an
// explicit offset).
func (ti *TimeInterval) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var aux struct {
		Start string `xml:"start"`
		End   string `xml:"end"`
	}
	if err := d.DecodeElement(&aux, &start); err != nil {
		return err
	}
	var err error
	if ti.Start, err = parseTimeString(aux.Start); err != nil {
		return fmt.Errorf("entsoe: start time %q: %w", aux.Start, err)
	}
	if ti.End, err = parseTimeString(aux.End); err != nil {
		return fmt.Errorf("entsoe: end time %q: %w", aux.End, err)
	}
	return nil
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z", "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time format: %s", s)
}

// parseISO8601Duration parses the PT[n]H[n]M[n]S subset ENTSO-E's
// resolution field actually uses.
func parseISO8601Duration(s string) (time.Duration, error) {
	if !strings.HasPrefix(s, "PT") {
		return 0, fmt.Errorf("unsupported duration format: %s", s)
	}
	s = s[2:]
	var total time.Duration
	var num strings.Builder
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			num.WriteRune(ch)
		case ch == 'H' || ch == 'M' || ch == 'S':
			n, err := strconv.Atoi(num.String())
			if err != nil {
				return 0, fmt.Errorf("invalid number before %q in %q", ch, s)
			}
			switch ch {
			case 'H':
				total += time.Duration(n) * time.Hour
			case 'M':
				total += time.Duration(n) * time.Minute
			case 'S':
				total += time.Duration(n) * time.Second
			}
			num.Reset()
		default:
			return 0, fmt.Errorf("unknown duration unit %q in %q", ch, s)
		}
	}
	return total, nil
}

// Point is a single 1-based-position price sample within a Period.
type Point struct {
	Position    int     `xml:"position"`
	PriceAmount float64 `xml:"price.amount"`
}

// Decode parses an ENTSO-E Publication_MarketDocument from r.
func Decode(r io.Reader) (*PublicationMarketDocument, error) {
	var doc PublicationMarketDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("entsoe: %w", err)
	}
	return &doc, nil
}

// ToSeries flattens every TimeSeries/Period's points into a single
// timeseries.TableSeries, mapping each Point's wall-clock position to a
// simulation TimeStamp via epoch and periodTicks (the tick length of one
// operation period), so strategists consume ENTSO-E data through the same
// Series interface as any other forecast source.
func (doc *PublicationMarketDocument) ToSeries(epoch time.Time, periodTicks int64) (*timeseries.TableSeries, error) {
	var timestamps []model.TimeStamp
	var values []float64

	for _, ts := range doc.TimeSeries {
		for _, pt := range ts.Points {
			start := ts.Period.TimeInterval.Start.Add(time.Duration(pt.Position-1) * ts.Period.Resolution)
			ticks := int64(start.Sub(epoch)/ts.Period.Resolution) * periodTicks
			timestamps = append(timestamps, model.TimeStamp(ticks))
			values = append(values, pt.PriceAmount)
		}
	}
	return timeseries.NewTableSeries(timestamps, values)
}
