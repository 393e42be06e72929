package productivity

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

// Markdown lays the analysis out as a markdown document with dates in loc.
func (a Analysis) Markdown(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	title := string(a.Period)
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s report\n\n", title)
	fmt.Fprintf(&b, "_%s to %s_\n\n", a.StartDate.In(loc).Format("Mon Jan 2"), a.EndDate.In(loc).Format("Mon Jan 2"))

	b.WriteString("| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| events | %d |\n", a.TotalEvents)
	fmt.Fprintf(&b, "| scheduled time | %dh %02dm |\n", a.TotalDurationMinutes/60, a.TotalDurationMinutes%60)
	fmt.Fprintf(&b, "| average length | %.0f min |\n", a.AverageEventDurationMinutes)
	fmt.Fprintf(&b, "| conflicted events | %d |\n", a.ConflictCount)
	fmt.Fprintf(&b, "| reschedules applied | %d |\n", a.RescheduleCount)
	if a.MostProductiveDay != "" {
		fmt.Fprintf(&b, "| busiest day | %s |\n", a.MostProductiveDay)
	}
	if a.MostProductiveHour >= 0 {
		fmt.Fprintf(&b, "| busiest hour | %02d:00 |\n", a.MostProductiveHour)
	}

	b.WriteString("\n## By type\n\n")
	for _, t := range model.EventTypes() {
		if n := a.TypeDistribution[t]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", t, n)
		}
	}
	b.WriteString("\n## By priority\n\n")
	for _, p := range model.Priorities() {
		if n := a.PriorityDistribution[p]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", p, n)
		}
	}
	return b.String()
}
