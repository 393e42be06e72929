package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sandeepkv93/slotd/internal/model"
)

const (
	productID = "-//slotd//calendar//EN"

	propType    = ical.ComponentProperty("X-SLOTD-TYPE")
	propChannel = ical.ComponentProperty("X-SLOTD-CHANNEL")
	propPrio    = ical.ComponentProperty("PRIORITY")
	propTrigger = ical.ComponentProperty("TRIGGER")
)

var ErrEmptyCalendar = errors.New("export: empty calendar")

// Imported is one VEVENT read back as a draft. UID is kept so callers can
// match it against existing events.
type Imported struct {
	UID   string
	Draft model.Draft
}

func WriteICS(w io.Writer, events []model.Event) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetDtStampTime(e.UpdatedAt)
		ve.SetModifiedAt(e.UpdatedAt)
		if e.AllDay {
			ve.SetAllDayStartAt(e.StartTime)
			ve.SetAllDayEndAt(allDayEnd(e))
		} else {
			ve.SetStartAt(e.StartTime)
			ve.SetEndAt(e.EndTime)
		}
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if len(e.Tags) > 0 {
			ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(e.Tags, ","))
		}
		ve.SetProperty(propPrio, strconv.Itoa(icsPriority(e.Priority)))
		ve.SetProperty(propType, string(e.Type))
		if e.Recurrence != "" {
			ve.SetProperty(ical.ComponentPropertyRrule, e.Recurrence)
		}
		for _, r := range e.Reminders {
			alarm := ve.AddAlarm()
			alarm.SetProperty(ical.ComponentPropertyAction, string(ical.ActionDisplay))
			alarm.SetProperty(propTrigger, fmt.Sprintf("-PT%dM", r.OffsetMinutesBefore))
			alarm.SetProperty(ical.ComponentPropertyDescription, e.Title)
			alarm.SetProperty(propChannel, string(r.Channel))
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// ReadICS parses VEVENTs into drafts. Floating and date-only values are
// read in loc. Events that cannot be interpreted are skipped and reported
// in the returned error list.
func ReadICS(r io.Reader, loc *time.Location) ([]Imported, []error, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse ics: %w", err)
	}
	list := cal.Events()
	if len(list) == 0 {
		return nil, nil, ErrEmptyCalendar
	}

	out := make([]Imported, 0, len(list))
	var skipped []error
	for _, ve := range list {
		item, perr := readVEvent(ve, loc)
		if perr != nil {
			skipped = append(skipped, perr)
			continue
		}
		out = append(out, item)
	}
	return out, skipped, nil
}

func readVEvent(ve *ical.VEvent, loc *time.Location) (Imported, error) {
	var out Imported
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	d := model.Draft{}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		d.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		d.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		d.Location = p.Value
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return out, fmt.Errorf("export: event %q has no DTSTART", out.UID)
	}
	d.AllDay = isDateValue(startProp)
	start, err := readTime(startProp, d.AllDay, loc)
	if err != nil {
		return out, fmt.Errorf("export: event %q: %w", out.UID, err)
	}
	d.StartTime = start
	d.EndTime = start
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, err := readTime(endProp, d.AllDay, loc)
		if err != nil {
			return out, fmt.Errorf("export: event %q: %w", out.UID, err)
		}
		d.EndTime = end
	} else if !d.AllDay {
		d.EndTime = start.Add(time.Hour)
	}

	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		for _, tag := range strings.Split(p.Value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				d.Tags = append(d.Tags, tag)
			}
		}
	}
	if p := ve.GetProperty(propPrio); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			d.Priority = priorityFromICS(n)
		}
	}
	if p := ve.GetProperty(propType); p != nil {
		if t, err := model.ParseEventType(p.Value); err == nil {
			d.Type = t
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		d.Recurrence = p.Value
	}
	for _, comp := range ve.Components {
		alarm, ok := comp.(*ical.VAlarm)
		if !ok {
			continue
		}
		trigger := alarm.GetProperty(propTrigger)
		if trigger == nil {
			continue
		}
		minutes, ok := parseTrigger(trigger.Value)
		if !ok {
			continue
		}
		rem := model.Reminder{OffsetMinutesBefore: minutes}
		if p := alarm.GetProperty(propChannel); p != nil {
			if c, err := model.ParseChannel(p.Value); err == nil {
				rem.Channel = c
			}
		}
		d.Reminders = append(d.Reminders, rem)
	}

	out.Draft = d.WithDefaults()
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func readTime(p *ical.IANAProperty, allDay bool, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(p.Value)
	if allDay {
		return time.ParseInLocation("20060102", v, loc)
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	zone := loc
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if named, err := time.LoadLocation(tzs[0]); err == nil {
			zone = named
		}
	}
	return time.ParseInLocation("20060102T150405", v, zone)
}

func allDayEnd(e model.Event) time.Time {
	if e.EndTime.After(e.StartTime) {
		return e.EndTime
	}
	return e.StartTime.AddDate(0, 0, 1)
}

func icsPriority(p model.Priority) int {
	switch p {
	case model.PriorityUrgent:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityLow:
		return 9
	default:
		return 5
	}
}

// priorityFromICS maps the 1..9 scale back onto the four tiers; 0 is undefined.
func priorityFromICS(n int) model.Priority {
	switch {
	case n >= 1 && n <= 2:
		return model.PriorityUrgent
	case n >= 3 && n <= 4:
		return model.PriorityHigh
	case n >= 6 && n <= 9:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

var triggerPattern = regexp.MustCompile(`^-P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseTrigger reads a negative relative TRIGGER duration in whole minutes.
func parseTrigger(v string) (int, bool) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "PT0M" || v == "PT0S" {
		return 0, true
	}
	m := triggerPattern.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	weights := []int{7 * 24 * 60, 24 * 60, 60, 1}
	total := 0
	for i, w := range weights {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += n * w
	}
	return total, true
}
