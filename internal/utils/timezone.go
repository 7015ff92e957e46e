package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Calling window boundaries in the business timezone.
const (
	CallWindowOpenHour  = 10
	CallWindowCloseHour = 19 // exclusive, last callable minute is 18:59
)

const (
	// DateLayout is the wire format for scheduled and callback dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for scheduled and callback times.
	ClockLayout = "15:04"
)

var (
	businessLocMu sync.Mutex
	businessLocs  = map[string]*time.Location{}
)

// BusinessLocation returns the timezone all scheduling decisions are made
// in, caching each loaded zone by name. Falls back to UTC if the zone
// database is unavailable.
func BusinessLocation(name string) *time.Location {
	businessLocMu.Lock()
	defer businessLocMu.Unlock()
	if loc, ok := businessLocs[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	businessLocs[name] = loc
	return loc
}

// BusinessDate formats t as a YYYY-MM-DD business date.
func BusinessDate(t time.Time) string {
	return t.Format(DateLayout)
}

// BusinessClock formats t as a zero-padded HH:MM clock string.
func BusinessClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// WithinCallHours reports whether t falls inside the allowed calling window.
func WithinCallHours(t time.Time) bool {
	return t.Hour() >= CallWindowOpenHour && t.Hour() < CallWindowCloseHour
}

// PadClock zero-pads a single-digit hour so clock strings compare
// lexicographically ("9:30" -> "09:30"). Well-formed input passes through.
func PadClock(clock string) string {
	if i := strings.Index(clock, ":"); i == 1 {
		return "0" + clock
	}
	return clock
}

// RandomCallTime returns a uniformly random HH:MM inside the calling
// window, used to spread defaulted callbacks across the day.
func RandomCallTime() string {
	hour := CallWindowOpenHour + rand.Intn(CallWindowCloseHour-CallWindowOpenHour)
	minute := rand.Intn(60)
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
