package scoring

import (
	"sort"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

// MaxScore is the highest value Score can return (morning, urgent today, weekday).
const MaxScore = 100

const (
	morningWeight   = 30
	afternoonWeight = 20
	offHoursWeight  = 10
	todayWeight     = 50
	tomorrowWeight  = 30
	weekdayWeight   = 20
)

// Scorer rates slots by desirability. "Today" is taken from the clock, not
// from the slot.
type Scorer struct {
	now func() time.Time
	loc *time.Location
}

func NewScorer(now func() time.Time, loc *time.Location) *Scorer {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scorer{now: now, loc: loc}
}

func (s *Scorer) Score(slot model.TimeSlot, priority model.Priority) int {
	start := slot.Start.In(s.loc)
	total := 0

	switch h := start.Hour(); {
	case h >= 9 && h <= 12:
		total += morningWeight
	case h >= 13 && h <= 17:
		total += afternoonWeight
	default:
		total += offHoursWeight
	}

	if priority == model.PriorityUrgent {
		today := model.StartOfDay(s.now(), s.loc)
		day := model.StartOfDay(start, s.loc)
		if day.Equal(today) {
			total += todayWeight
		} else if day.Equal(today.AddDate(0, 0, 1)) {
			total += tomorrowWeight
		}
	}

	if wd := start.Weekday(); wd != time.Saturday && wd != time.Sunday {
		total += weekdayWeight
	}
	return total
}

type Ranked struct {
	Slot  model.TimeSlot `json:"slot"`
	Score int            `json:"score"`
}

// Rank orders slots by descending score. Equal scores keep their input order.
func (s *Scorer) Rank(slots []model.TimeSlot, priority model.Priority) []Ranked {
	out := make([]Ranked, 0, len(slots))
	for _, slot := range slots {
		out = append(out, Ranked{Slot: slot, Score: s.Score(slot, priority)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Scorer) Best(slots []model.TimeSlot, priority model.Priority) (Ranked, bool) {
	ranked := s.Rank(slots, priority)
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}
