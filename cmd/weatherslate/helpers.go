package main

import "time"

// durationSeconds converts a float seconds value (as config stores backoff
// and timeout tunables) into a time.Duration.
func durationSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
