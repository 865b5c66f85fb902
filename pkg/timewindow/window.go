// Package timewindow models the inclusive date range that bounds an
// extraction run. All boundaries are interpreted in the reporting
// timezone (UTC-4), which is what the upstream dashboard uses for its
// own date math.
package timewindow

import (
	"fmt"
	"time"
)

// ReportingZone is the fixed UTC-4 offset used for every timestamp the
// tool renders or compares. It intentionally ignores DST.
var ReportingZone = time.FixedZone("UTC-4", -4*60*60)

const dateLayout = "2006-01-02"

// Stamp renders an epoch-seconds timestamp in the reporting timezone.
func Stamp(epoch int64) string {
	return time.Unix(epoch, 0).In(ReportingZone).Format("2006-01-02 15:04:05 UTC-4")
}

// Now returns the current time in the reporting timezone.
func Now() time.Time {
	return time.Now().In(ReportingZone)
}

// Window is an inclusive [Start, End] range. A nil boundary on both ends
// means "unbounded": no filtering and no early pagination stop.
type Window struct {
	Start *time.Time
	End   *time.Time
	Mode  string
}

// All returns the unbounded window.
func All() Window {
	return Window{Mode: "all"}
}

// Today covers the current reporting-zone day.
func Today() Window {
	return dayRange(Now(), Now(), "today_only")
}

// Yesterday covers the previous reporting-zone day.
func Yesterday() Window {
	y := Now().AddDate(0, 0, -1)
	return dayRange(y, y, "yesterday_only")
}

// LastNDays covers the n days up to and including today.
func LastNDays(n int) Window {
	end := Now()
	start := end.AddDate(0, 0, -n)
	return dayRange(start, end, fmt.Sprintf("last_%d_days", n))
}

// Range parses two YYYY-MM-DD strings into an inclusive window. The end
// day is extended to 23:59:59 so same-day ranges still span the full day.
func Range(startStr, endStr string) (Window, error) {
	start, err := time.ParseInLocation(dateLayout, startStr, ReportingZone)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	end, err := time.ParseInLocation(dateLayout, endStr, ReportingZone)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
	}
	if start.After(end) {
		return Window{}, fmt.Errorf("start date %s is after end date %s", startStr, endStr)
	}
	return dayRange(start, end, "custom_range"), nil
}

// FromConfig resolves one of the enumerated window presets. Unknown modes
// fall back to today, matching the original behavior of the dashboard
// configuration.
func FromConfig(mode, specific, start, end string) (Window, error) {
	switch mode {
	case "today":
		return Today(), nil
	case "yesterday":
		return Yesterday(), nil
	case "last_7_days":
		return LastNDays(7), nil
	case "last_30_days":
		return LastNDays(30), nil
	case "specific_date":
		if specific == "" {
			return Today(), nil
		}
		return Range(specific, specific)
	case "date_range":
		if start == "" || end == "" {
			return Today(), nil
		}
		return Range(start, end)
	case "all":
		return All(), nil
	default:
		return Today(), nil
	}
}

func dayRange(startDay, endDay time.Time, mode string) Window {
	start := time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, ReportingZone)
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, 0, ReportingZone)
	return Window{Start: &start, End: &end, Mode: mode}
}

// Bounded reports whether the window filters at all.
func (w Window) Bounded() bool {
	return w.Start != nil && w.End != nil
}

// Contains reports whether an epoch-seconds timestamp is inside the
// window. Unbounded windows contain everything.
func (w Window) Contains(epoch int64) bool {
	if !w.Bounded() {
		return true
	}
	return epoch >= w.Start.Unix() && epoch <= w.End.Unix()
}

// StartUnix returns the epoch seconds of the window start, or 0 when
// unbounded.
func (w Window) StartUnix() int64 {
	if w.Start == nil {
		return 0
	}
	return w.Start.Unix()
}

// Label produces the filename suffix for this window, e.g.
// "_2025-09-20_to_2025-09-27" or "_today".
func (w Window) Label() string {
	switch w.Mode {
	case "today_only":
		return "_today"
	case "yesterday_only":
		return "_yesterday"
	case "all", "":
		return "_all"
	case "custom_range":
		return "_" + w.Start.Format(dateLayout) + "_to_" + w.End.Format(dateLayout)
	default:
		return "_" + w.Mode
	}
}

// String is a human-readable rendering used in logs.
func (w Window) String() string {
	if !w.Bounded() {
		return "all broadcasts"
	}
	return w.Start.Format(dateLayout) + " to " + w.End.Format(dateLayout)
}
