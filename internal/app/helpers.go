package app

import (
	"time"

	"github.com/dustin/go-humanize"
)

// humanizeSince renders t relative to now, e.g. "3 hours ago".
func humanizeSince(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
