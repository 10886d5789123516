// Package timer drives per-activity countdowns from a server-supplied end time.
package timer

import (
	"fmt"
	"sort"
	"time"

	"github.com/stemsi/exstem-quizclient/internal/model"
)

// Countdown counts down to an absolute end time.
type Countdown struct {
	EndTime  int64
	last     int64
	onTick   func(remaining int64)
	onExpire func()
}

// Scheduler keeps at most one countdown per activity kind.
// It is driven by Tick and is not safe for concurrent use.
type Scheduler struct {
	countdowns map[model.ActivityKind]*Countdown
}

func NewScheduler() *Scheduler {
	return &Scheduler{countdowns: make(map[model.ActivityKind]*Countdown)}
}

// Start replaces any countdown of the same kind.
func (s *Scheduler) Start(kind model.ActivityKind, endTime int64, onTick func(remaining int64), onExpire func()) {
	s.countdowns[kind] = &Countdown{
		EndTime:  endTime,
		last:     -1,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Cancel drops the countdown of the given kind, if any.
func (s *Scheduler) Cancel(kind model.ActivityKind) {
	delete(s.countdowns, kind)
}

// Active reports whether a countdown of the given kind is running.
func (s *Scheduler) Active(kind model.ActivityKind) bool {
	_, ok := s.countdowns[kind]
	return ok
}

// Remaining returns the seconds left for kind, or 0 if nothing is running.
func (s *Scheduler) Remaining(kind model.ActivityKind, now time.Time) int64 {
	cd, ok := s.countdowns[kind]
	if !ok {
		return 0
	}
	return Remaining(cd.EndTime, now)
}

// Tick advances every countdown to now. onTick only sees changed values, so
// Tick may be called more often than once per second. A countdown that
// reaches zero reports a final tick, is removed, then fires onExpire exactly once.
func (s *Scheduler) Tick(now time.Time) {
	kinds := make([]string, 0, len(s.countdowns))
	for k := range s.countdowns {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		kind := model.ActivityKind(k)
		cd, ok := s.countdowns[kind]
		if !ok {
			continue
		}
		rem := Remaining(cd.EndTime, now)
		if rem != cd.last {
			cd.last = rem
			if cd.onTick != nil {
				cd.onTick(rem)
			}
		}
		if rem > 0 {
			continue
		}
		// A callback above may have restarted this kind.
		if s.countdowns[kind] == cd {
			delete(s.countdowns, kind)
		}
		if cd.onExpire != nil {
			cd.onExpire()
		}
	}
}

// Remaining returns max(0, endTime-now) in whole seconds.
func Remaining(endTime int64, now time.Time) int64 {
	rem := endTime - now.Unix()
	if rem < 0 {
		return 0
	}
	return rem
}

// FormatRemaining renders seconds as mm:ss.
func FormatRemaining(rem int64) string {
	if rem < 0 {
		rem = 0
	}
	return fmt.Sprintf("%02d:%02d", rem/60, rem%60)
}
