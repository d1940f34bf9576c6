// Package display renders byte counts and savings ratios for reports and logs.
package display

import (
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatSize returns a human-readable size using 1024-based units, rounded
// to two decimals ("0 B", "512 B", "1.5 KB", "100.0 KB").
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}
	if bytes < 1024 {
		return sign + strconv.FormatInt(bytes, 10) + " B"
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return sign + formatDecimal(Round2(value)) + " " + sizeUnits[unit]
}

// Percent returns saved/original*100 rounded to two decimals, or 0 when
// original is not positive.
func Percent(saved, original int64) float64 {
	if original <= 0 {
		return 0
	}
	return Round2(float64(saved) / float64(original) * 100)
}

// FormatPercent renders a percentage as "12.34%". Zero prints as "0.0%".
func FormatPercent(p float64) string {
	return formatDecimal(p) + "%"
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatDecimal prints the shortest representation but always keeps one
// fractional digit, so 100 prints as "100.0".
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
