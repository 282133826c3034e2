package tariff

import (
	"fmt"
	"strings"
)

// HoursFromWindows expands "HH:MM-HH:MM" windows into the whole hours whose
// start falls inside [start, end). Windows may wrap across midnight.
// An empty window ("17:00-17:00") contributes nothing.
func HoursFromWindows(windows []string) ([]int, error) {
	var seen [24]bool
	out := []int{}
	for _, w := range windows {
		start, end, err := parseWindow(w)
		if err != nil {
			return nil, err
		}
		for h := 0; h < 24; h++ {
			if inWindow(h*60, start, end) && !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func parseWindow(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: invalid window %q, expected HH:MM-HH:MM", ErrInvalidSchedule, s)
	}
	start, err := parseHHMM(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseHHMM(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: invalid time %q, expected HH:MM", ErrInvalidSchedule, s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidSchedule, s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidSchedule, s)
	}
	// 24:00 is accepted as an end-of-day marker.
	if h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidSchedule, s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
