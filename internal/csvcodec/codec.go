package csvcodec

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vnpy/datamanager/internal/domain/bar"
	"github.com/vnpy/datamanager/pkg/errors"
)

// DefaultLayout is the Go reference layout matching the classic
// "YYYY-MM-DD HH:MM:SS" datetime column.
const DefaultLayout = "2006-01-02 15:04:05"

// ExportHeader is the fixed column order written on export. The field columns
// match DefaultMapping, so an exported file re-imports without configuration.
var ExportHeader = []string{
	"symbol", "exchange", "datetime",
	"open", "high", "low", "close",
	"volume", "turnover", "open_interest",
}

// ColumnMapping binds bar fields to source column headers.
type ColumnMapping struct {
	Datetime     string
	Open         string
	High         string
	Low          string
	Close        string
	Volume       string
	Turnover     string
	OpenInterest string
}

// DefaultMapping returns the classic column header layout.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		Datetime:     "datetime",
		Open:         "open",
		High:         "high",
		Low:          "low",
		Close:        "close",
		Volume:       "volume",
		Turnover:     "turnover",
		OpenInterest: "open_interest",
	}
}

// Codec converts between CSV rows and bars. It is bound to one column
// mapping, one datetime layout and one time zone; a zero-value layout or
// location falls back to DefaultLayout and UTC.
type Codec struct {
	mapping ColumnMapping
	layout  string
	loc     *time.Location

	// header column name -> record index, set by BindHeader
	columns map[string]int
}

// New creates a codec for the given mapping, datetime layout and location.
func New(mapping ColumnMapping, layout string, loc *time.Location) *Codec {
	if layout == "" {
		layout = DefaultLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Codec{
		mapping: mapping,
		layout:  layout,
		loc:     loc,
	}
}

// BindHeader resolves the mapping against the file header. The datetime and
// OHLC/volume columns are required; turnover and open interest default to
// zero when their columns are absent.
func (c *Codec) BindHeader(header []string) error {
	c.columns = make(map[string]int, len(header))
	for i, name := range header {
		c.columns[name] = i
	}

	required := []string{
		c.mapping.Datetime,
		c.mapping.Open,
		c.mapping.High,
		c.mapping.Low,
		c.mapping.Close,
		c.mapping.Volume,
	}
	for _, name := range required {
		if _, ok := c.columns[name]; !ok {
			return errors.NewDataError(errors.CSVParseError,
				fmt.Sprintf("missing required column %q in header", name))
		}
	}

	return nil
}

// ParseRow converts one data row into a bar for the target key. Failures are
// reported as a RowDetail carrying the row number, column and raw value, so
// the caller can collect them without aborting the batch.
func (c *Codec) ParseRow(rowNum int, record []string, key bar.Key) (*bar.Bar, *errors.RowDetail) {
	raw, detail := c.field(rowNum, record, c.mapping.Datetime)
	if detail != nil {
		return nil, detail
	}
	timestamp, err := time.ParseInLocation(c.layout, raw, c.loc)
	if err != nil {
		return nil, &errors.RowDetail{
			Row: rowNum, Column: c.mapping.Datetime, Value: raw,
			Reason: fmt.Sprintf("datetime does not match layout %q", c.layout),
		}
	}

	b := &bar.Bar{
		Symbol:    key.Symbol,
		Exchange:  key.Exchange,
		Interval:  key.Interval,
		Timestamp: timestamp.UTC(),
	}

	for _, field := range []struct {
		column   string
		dest     *decimal.Decimal
		optional bool
	}{
		{c.mapping.Open, &b.Open, false},
		{c.mapping.High, &b.High, false},
		{c.mapping.Low, &b.Low, false},
		{c.mapping.Close, &b.Close, false},
		{c.mapping.Volume, &b.Volume, false},
		{c.mapping.Turnover, &b.Turnover, true},
		{c.mapping.OpenInterest, &b.OpenInterest, true},
	} {
		idx, ok := c.columns[field.column]
		if !ok || idx >= len(record) {
			if field.optional {
				continue
			}
			return nil, &errors.RowDetail{
				Row: rowNum, Column: field.column,
				Reason: "missing value for required column",
			}
		}

		value, err := decimal.NewFromString(record[idx])
		if err != nil {
			return nil, &errors.RowDetail{
				Row: rowNum, Column: field.column, Value: record[idx],
				Reason: "not a valid decimal number",
			}
		}
		*field.dest = value
	}

	if err := b.Validate(); err != nil {
		return nil, &errors.RowDetail{
			Row: rowNum, Reason: fmt.Sprintf("invariant violation: %v", err),
		}
	}

	return b, nil
}

// Serialize renders one bar in ExportHeader order. Decimal fields keep their
// stored precision, so re-parsing a serialized row reproduces an equal bar.
func (c *Codec) Serialize(b *bar.Bar) []string {
	return []string{
		b.Symbol,
		b.Exchange,
		b.Timestamp.In(c.loc).Format(c.layout),
		b.Open.String(),
		b.High.String(),
		b.Low.String(),
		b.Close.String(),
		b.Volume.String(),
		b.Turnover.String(),
		b.OpenInterest.String(),
	}
}

func (c *Codec) field(rowNum int, record []string, column string) (string, *errors.RowDetail) {
	idx, ok := c.columns[column]
	if !ok || idx >= len(record) {
		return "", &errors.RowDetail{
			Row: rowNum, Column: column,
			Reason: "missing value for required column",
		}
	}
	return record[idx], nil
}
