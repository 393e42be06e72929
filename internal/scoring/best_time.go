package scoring

import (
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

type SlotFinder interface {
	FindAvailable(date time.Time, durationMinutes int) ([]model.TimeSlot, error)
}

// BestTime is the morning-preference heuristic. It is deliberately
// independent of Scorer.
type BestTime struct {
	finder SlotFinder
	now    func() time.Time
	loc    *time.Location
}

func NewBestTime(finder SlotFinder, now func() time.Time, loc *time.Location) *BestTime {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &BestTime{finder: finder, now: now, loc: loc}
}

// Suggest returns the start of today's best free slot. ok is false when the
// day has no free slot.
func (b *BestTime) Suggest(durationMinutes int, priority model.Priority) (time.Time, bool, error) {
	slots, err := b.finder.FindAvailable(b.now().In(b.loc), durationMinutes)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(slots) == 0 {
		return time.Time{}, false, nil
	}
	if priority.AtLeast(model.PriorityHigh) {
		for _, s := range slots {
			if s.Start.In(b.loc).Hour() < 12 {
				return s.Start, true, nil
			}
		}
	}
	return slots[0].Start, true, nil
}
