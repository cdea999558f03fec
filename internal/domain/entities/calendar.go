package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the format of a calendar day key (YYYY-MM-DD).
const DayLayout = "2006-01-02"

// DayKey returns the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// YesterdayKey returns the calendar day before the day of t in loc.
// The date is rebuilt at noon so DST transitions never skip or repeat a day.
func YesterdayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	prev := time.Date(local.Year(), local.Month(), local.Day()-1, 12, 0, 0, 0, loc)
	return prev.Format(DayLayout)
}

// PrevDayKey returns the day key preceding day.
func PrevDayKey(day string) (string, error) {
	d, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", fmt.Errorf("parse day %q: %w", day, err)
	}
	return d.AddDate(0, 0, -1).Format(DayLayout), nil
}

// DaysBetween returns the number of calendar days from one day key to another.
// The result is negative when to precedes from.
func DaysBetween(from, to string) (int, error) {
	a, err := time.Parse(DayLayout, from)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", from, err)
	}
	b, err := time.Parse(DayLayout, to)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", to, err)
	}
	// Both parse as UTC midnight, so the difference is a whole number of days.
	return int(b.Sub(a).Hours() / 24), nil
}

// IsDayKey reports whether s is a well-formed day key.
func IsDayKey(s string) bool {
	_, err := time.Parse(DayLayout, s)
	return err == nil
}

// ParseTimezoneLocation supports:
// - IANA tz like "Europe/Madrid"
// - "UTC" / "GMT"
// - fixed offsets: "UTC+3", "UTC-7", "UTC+5:30", "+3", "-03:30"
//
// Fixed offsets map to time.FixedZone, which ignores DST.
func ParseTimezoneLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" || strings.EqualFold(tz, "UTC") || strings.EqualFold(tz, "Etc/UTC") || strings.EqualFold(tz, "GMT") {
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	offSec, ok := parseUTCOffsetSeconds(tz)
	if !ok {
		return nil, fmt.Errorf("unsupported timezone %q", tz)
	}
	return time.FixedZone(formatUTCOffsetName(offSec), offSec), nil
}

func parseUTCOffsetSeconds(tz string) (int, bool) {
	s := strings.TrimSpace(tz)

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return parseSignHourMinuteToSeconds(s)
	}

	if strings.HasPrefix(strings.ToUpper(s), "UTC") {
		s = strings.TrimSpace(s[3:])
		if s == "" {
			return 0, true
		}
		if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
			return parseSignHourMinuteToSeconds(s)
		}
	}

	return 0, false
}

func parseSignHourMinuteToSeconds(s string) (int, bool) {
	if len(s) < 2 {
		return 0, false
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}
	s = s[1:]

	hh, mm, found := strings.Cut(s, ":")
	if !found {
		mm = "0"
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}

	if h < 0 || h > 14 || m < 0 || m >= 60 {
		return 0, false
	}

	return sign * (h*3600 + m*60), true
}

func formatUTCOffsetName(offsetSec int) string {
	sign := "+"
	if offsetSec < 0 {
		sign = "-"
		offsetSec = -offsetSec
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offsetSec/3600, (offsetSec%3600)/60)
}
