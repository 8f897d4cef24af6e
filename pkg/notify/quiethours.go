package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextDelivery decides whether delivery must wait for the recipient's
// quiet-hours window to close. It returns the resume time and true when
// the request should be deferred.
//
// Critical and urgent notifications are exempt. A window may wrap past
// midnight (e.g. 22:00-08:00). Malformed clock strings disable the
// window rather than blocking delivery.
func NextDelivery(now time.Time, rcpt Profile, priority Priority) (time.Time, bool) {
	if priority == PriorityCritical || priority == PriorityUrgent {
		return time.Time{}, false
	}
	if !rcpt.QuietHours.Enabled {
		return time.Time{}, false
	}

	start, err := parseClock(rcpt.QuietHours.Start)
	if err != nil {
		return time.Time{}, false
	}
	end, err := parseClock(rcpt.QuietHours.End)
	if err != nil {
		return time.Time{}, false
	}

	cur := now.Hour()*60 + now.Minute()
	var inside bool
	if start > end { // wraps midnight
		inside = cur >= start || cur < end
	} else {
		inside = cur >= start && cur < end
	}
	if !inside {
		return time.Time{}, false
	}

	resume := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())
	if !resume.After(now) {
		resume = resume.AddDate(0, 0, 1)
	}
	return resume, true
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute in %q", s)
	}
	return h*60 + m, nil
}
