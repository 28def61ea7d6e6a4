// Package utils contains various common utils separate by utility types
package utils

import (
	"time"
)

// SecsToTime converts an int64 of seconds from epoch to Time struct
func SecsToTime(ts int64) time.Time {
	return time.Unix(ts, 0)
}

// CurrentEpochSecsInInt64 returns the current UTC time in epoch secs
func CurrentEpochSecsInInt64() int64 {
	return time.Now().UTC().Unix()
}
