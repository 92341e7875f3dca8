// Package utils offers functions of general utility in other parts of the system
package utils

import (
	"strconv"
	"time"
)

// DurationSeconds formats a duration as seconds with up to 2 decimals,
// without trailing zeros (e.g. "1.5s")
func DurationSeconds(d time.Duration) string {
	seconds := d.Round(10 * time.Millisecond).Seconds()

	return strconv.FormatFloat(seconds, 'f', -1, 64) + "s"
}

// DurationMillis formats a duration as whole milliseconds (e.g. "250ms")
func DurationMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
