// Package utils provides utility functions for the risk engine.
// This file contains numeric, conversion and formatting helpers.
package utils

import (
	"math"
	"strconv"
	"strings"
)

// ================================================================================
// Numeric Helpers
// ================================================================================

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean returns the arithmetic mean of values, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// FormatScore renders a score with one decimal place, e.g. "3.2"
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatPercent renders a probability in [0,1] as a whole percentage without the sign
func FormatPercent(p float64) string {
	return strconv.FormatFloat(math.Round(p*100), 'f', 0, 64)
}

// ================================================================================
// Masking
// ================================================================================

// MaskEmail hides the local part of an email address for logging
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}
