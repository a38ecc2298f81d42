package enrich

import (
	"fmt"
	"time"
)

// SeasonStartMonth is the month a European league season starts in.
const SeasonStartMonth = time.July

// Season returns the "YYYY-YYYY" league season t falls in. The month is read in
// t's own location, so an event keeps the offset it was reported with.
func Season(t time.Time) string {
	start := t.Year()
	if t.Month() < SeasonStartMonth {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}
