package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnpy/datamanager/internal/domain/bar"
)

// Accepted layouts for --start / --end values.
var timeFlagLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// addKeyFlags registers the series-identifying flags shared by most commands.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("symbol", "", "Instrument symbol (e.g. IBM)")
	cmd.Flags().String("exchange", "", "Exchange code (e.g. NYSE)")
	cmd.Flags().String("interval", "", "Bar interval (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("exchange")
	cmd.MarkFlagRequired("interval")
}

func keyFromFlags(cmd *cobra.Command) (bar.Key, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	exchange, _ := cmd.Flags().GetString("exchange")
	interval, _ := cmd.Flags().GetString("interval")

	key := bar.Key{Symbol: symbol, Exchange: exchange, Interval: interval}
	if err := key.Validate(); err != nil {
		return bar.Key{}, err
	}
	return key, nil
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeFlagLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", value)
}

func parseRangeFlags(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseTimeFlag(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeFlag(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s is before start %s", endStr, startStr)
	}
	return start, end, nil
}
