package shifts

import (
	"fmt"
	"math"
	"time"
)

const clockLayout = "15:04"
const clockLayoutSeconds = "15:04:05"

// ParseClock accepts a wall-clock string in HH:MM or HH:MM:SS form and
// returns the offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		parsed, err = time.Parse(clockLayoutSeconds, value)
		if err != nil {
			return 0, fmt.Errorf("invalid wall-clock time %q: want HH:MM or HH:MM:SS", value)
		}
	}
	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}

// ResolveInterval anchors a template's wall-clock bounds to a calendar
// date. A shift whose end does not come after its start rolls over
// midnight into the next day, so 22:00-06:00 on the 10th runs to 06:00 on
// the 11th. Hours is the span rounded to two decimals.
func ResolveInterval(date time.Time, startClock, endClock string) (start, end time.Time, hours float64, err error) {
	startOffset, err := ParseClock(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	endOffset, err := ParseClock(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start = midnight.Add(startOffset)
	end = midnight.Add(endOffset)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	hours = RoundHours(end.Sub(start))
	return start, end, hours, nil
}

// RoundHours converts a duration to hours rounded to two decimals.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
