package engine

import (
	"sync"
	"time"

	"trader_go/internal/domain"
)

var (
	easternOnce sync.Once
	easternLoc  *time.Location
)

// eastern returns the US exchange timezone, falling back to a fixed EST
// offset if the zone database is unavailable.
func eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*3600)
		}
		easternLoc = loc
	})
	return easternLoc
}

// isRegularTradingHours reports whether t falls inside the Mon-Fri
// 9:30-16:00 US/Eastern session.
func isRegularTradingHours(t time.Time) bool {
	et := t.In(eastern())

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// sessionTIF picks the time-in-force for a new order: DAY during regular
// hours, GTC with the outside-RTH flag otherwise.
func (e *Engine) sessionTIF() (string, bool) {
	if isRegularTradingHours(e.now()) {
		return domain.TIFDay, false
	}
	return domain.TIFGTC, true
}
