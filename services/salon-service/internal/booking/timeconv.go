package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clock12 = regexp.MustCompile(`^(\d{1,2}):(\d{2}) ([AaPp][Mm])$`)

// To24Hour converts "h:mm AM" / "h:mm PM" to "HH:mm". 12 AM is hour 00 and
// 12 PM stays 12. Minutes pass through unchanged.
func To24Hour(s string) (string, error) {
	m := clock12.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("time %q is not in h:mm AM/PM form", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return "", fmt.Errorf("time %q is out of range", s)
	}
	if hour == 12 {
		hour = 0
	}
	if strings.ToUpper(m[3]) == "PM" {
		hour += 12
	}
	return fmt.Sprintf("%02d:%s", hour, m[2]), nil
}

// Combine joins a YYYY-MM-DD date with a 12-hour clock time in loc.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	hhmm, err := To24Hour(clock)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse appointment date %q: %w", date, err)
	}
	return t, nil
}
