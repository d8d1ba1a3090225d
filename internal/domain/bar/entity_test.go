package bar

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestKey(t *testing.T) {
	key := Key{Symbol: "IBM", Exchange: "NYSE", Interval: "1m"}
	assert.Equal(t, "IBM.NYSE.1m", key.String())
	assert.NoError(t, key.Validate())

	assert.Error(t, Key{Exchange: "NYSE", Interval: "1m"}.Validate())
	assert.Error(t, Key{Symbol: "IBM", Interval: "1m"}.Validate())
	assert.Error(t, Key{Symbol: "IBM", Exchange: "NYSE", Interval: "13m"}.Validate())
}

func TestBar_Validate(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	valid := func() *Bar {
		return &Bar{
			Symbol: "IBM", Exchange: "NYSE", Interval: "1m", Timestamp: ts,
			Open: d("188.10"), High: d("188.50"), Low: d("188.00"), Close: d("188.40"),
			Volume: d("1200"),
		}
	}

	testCases := []struct {
		name    string
		mutate  func(b *Bar)
		wantErr bool
	}{
		{name: "valid", mutate: func(b *Bar) {}},
		{name: "doji bar with equal prices", mutate: func(b *Bar) {
			b.Open, b.High, b.Low, b.Close = d("188"), d("188"), d("188"), d("188")
		}},
		{name: "zero volume allowed", mutate: func(b *Bar) { b.Volume = d("0") }},
		{name: "zero timestamp", mutate: func(b *Bar) { b.Timestamp = time.Time{} }, wantErr: true},
		{name: "negative low", mutate: func(b *Bar) { b.Low = d("-1") }, wantErr: true},
		{name: "negative volume", mutate: func(b *Bar) { b.Volume = d("-1") }, wantErr: true},
		{name: "open below low", mutate: func(b *Bar) { b.Open = d("187") }, wantErr: true},
		{name: "high below close", mutate: func(b *Bar) { b.High = d("188.20") }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := valid()
			tc.mutate(b)
			err := b.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBar_Equal(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	a := &Bar{
		Symbol: "IBM", Exchange: "NYSE", Interval: "1m", Timestamp: ts,
		Open: d("188.10"), High: d("188.50"), Low: d("188.00"), Close: d("188.40"),
		Volume: d("1200"),
	}

	// Numerically equal despite different precision.
	b := *a
	b.Open = d("188.1000")
	assert.True(t, a.Equal(&b))

	c := *a
	c.Close = d("188.41")
	assert.False(t, a.Equal(&c))

	e := *a
	e.Interval = "5m"
	assert.False(t, a.Equal(&e))
}

func TestList(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	bars := List{
		{Timestamp: ts.Add(2 * time.Minute)},
		{Timestamp: ts},
		{Timestamp: ts.Add(time.Minute)},
	}

	bars.SortByTimestamp()
	assert.Equal(t, ts, bars[0].Timestamp)
	assert.Equal(t, ts.Add(2*time.Minute), bars[2].Timestamp)

	_, dup := bars.DuplicateTimestamp()
	assert.False(t, dup)

	bars = append(bars, &Bar{Timestamp: ts.Add(2 * time.Minute)})
	bars.SortByTimestamp()
	at, dup := bars.DuplicateTimestamp()
	assert.True(t, dup)
	assert.Equal(t, ts.Add(2*time.Minute), at)
}
