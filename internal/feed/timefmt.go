package feed

import (
	"strconv"
	"time"
)

// FormatRelative renders the age of createdAt at now as "now", "{n}m", "{n}h" or "{n}d".
// Timestamps in the future read as "now".
func FormatRelative(createdAt, now time.Time) string {
	delta := int64(now.Sub(createdAt) / time.Second)
	switch {
	case delta < 60:
		return "now"
	case delta < 3600:
		return strconv.FormatInt(delta/60, 10) + "m"
	case delta < 86400:
		return strconv.FormatInt(delta/3600, 10) + "h"
	default:
		return strconv.FormatInt(delta/86400, 10) + "d"
	}
}
