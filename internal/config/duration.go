package config

import (
	"math"
	"time"
)

// Seconds converts a configured number of seconds into a Duration.
// Non-positive and NaN values yield zero, which callers read as unset.
func Seconds(v float64) time.Duration {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) || v > float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(v * float64(time.Second))
}

// SecondsOrDefault is Seconds with a fallback for unset values.
func SecondsOrDefault(v, fallback float64) time.Duration {
	if d := Seconds(v); d > 0 {
		return d
	}
	return Seconds(fallback)
}
