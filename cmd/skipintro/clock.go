package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errClockFormat = errors.New("expected SS, MM:SS or HH:MM:SS")

// parseClock reads a non-negative position written as seconds, MM:SS or
// HH:MM:SS. The last component may carry a fraction.
func parseClock(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errClockFormat
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%q: %w", value, errClockFormat)
	}

	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || seconds < 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return 0, fmt.Errorf("%q: %w", value, errClockFormat)
	}
	if len(parts) > 1 && seconds >= 60 {
		return 0, fmt.Errorf("%q: seconds must be below 60", value)
	}

	total := seconds
	scale := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q: %w", value, errClockFormat)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("%q: minutes must be below 60", value)
		}
		total += float64(n) * scale
		scale *= 60
	}
	return total, nil
}

// formatClock renders seconds as M:SS or H:MM:SS, keeping up to
// millisecond precision.
func formatClock(value float64) string {
	if value < 0 {
		return "-" + formatClock(-value)
	}
	ms := int64(math.Round(value * 1000))
	whole, frac := ms/1000, ms%1000
	h, m, s := whole/3600, (whole/60)%60, whole%60

	sec := fmt.Sprintf("%02d", s)
	if frac > 0 {
		sec += strings.TrimRight(fmt.Sprintf(".%03d", frac), "0")
	}
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%s", h, m, sec)
	}
	return fmt.Sprintf("%d:%s", m, sec)
}

func clockOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatClock(*v)
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
