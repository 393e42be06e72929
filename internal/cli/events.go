package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
)

type eventFlags struct {
	at          string
	minutes     int
	priority    string
	eventType   string
	tags        []string
	location    string
	description string
	reminders   []string
	allDay      bool
	recurrence  string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.at, "at", "", `Start: "today 14:00", "fri 09:30", "2026-03-02T10:00" or a date with --all-day`)
	fs.IntVar(&f.minutes, "for", 60, "Duration in minutes")
	fs.StringVar(&f.priority, "priority", "", "low, medium, high or urgent")
	fs.StringVar(&f.eventType, "type", "", "event, task, meeting or reminder")
	fs.StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable or comma-separated)")
	fs.StringVar(&f.location, "location", "", "Location")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.StringSliceVar(&f.reminders, "reminder", nil, "Reminder as MINUTES[:CHANNEL] before start")
	fs.BoolVar(&f.allDay, "all-day", false, "All-day event")
	fs.StringVar(&f.recurrence, "recur", "", "RFC 5545 RRULE, e.g. FREQ=WEEKLY;BYDAY=MO")
}

// interval resolves --at, --for and --all-day into start and end.
func (f *eventFlags) interval(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if f.allDay {
		day, err := commands.ResolveDate(f.at, now, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day.AddDate(0, 0, 1), nil
	}
	if f.minutes <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--for must be positive, got %d", f.minutes)
	}
	start, err := commands.ResolveWhen(f.at, now, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(f.minutes) * time.Minute), nil
}

func (a *app) newAddCommand() *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an event",
		Args:  cobra.MinimumNArgs(1),
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("at")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		loc := a.svc.Location()
		start, end, err := f.interval(a.svc.Now(), loc)
		if err != nil {
			return err
		}
		draft := model.Draft{
			Title:       strings.Join(args, " "),
			Description: f.description,
			Location:    f.location,
			StartTime:   start,
			EndTime:     end,
			AllDay:      f.allDay,
			Tags:        cleanTags(f.tags),
			Recurrence:  f.recurrence,
		}
		if f.priority != "" {
			if draft.Priority, err = model.ParsePriority(f.priority); err != nil {
				return err
			}
		}
		if f.eventType != "" {
			if draft.Type, err = model.ParseEventType(f.eventType); err != nil {
				return err
			}
		}
		if draft.Reminders, err = parseReminders(f.reminders); err != nil {
			return err
		}

		created, err := a.svc.AddEvent(cmd.Context(), draft)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %q %s [%s]\n", created.Title, formatWhen(created, loc), created.ID)
		if overlaps, err := a.svc.ConflictsOf(created.ID); err == nil {
			for _, o := range overlaps {
				fmt.Fprintf(out, "Warning: overlaps %q %s [%s]\n", o.Title, formatWhen(o, loc), o.ID)
			}
		}
		return nil
	})
	return cmd
}

func (a *app) newListCommand() *cobra.Command {
	var date, from, to string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events for a day or a date range",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&date, "date", "today", "Day to list")
	cmd.Flags().StringVar(&from, "from", "", "First day of a range")
	cmd.Flags().StringVar(&to, "to", "", "Last day of a range (inclusive)")
	cmd.Flags().BoolVar(&all, "all", false, "List every event")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	cmd.MarkFlagsMutuallyExclusive("date", "all")
	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, _ []string) error {
		loc, now := a.svc.Location(), a.svc.Now()
		switch {
		case all:
			printEvents(cmd.OutOrStdout(), a.svc.Events(), loc)
		case from != "":
			start, err := commands.ResolveDate(from, now, loc)
			if err != nil {
				return err
			}
			last, err := commands.ResolveDate(to, now, loc)
			if err != nil {
				return err
			}
			if last.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}
			printEvents(cmd.OutOrStdout(), a.svc.EventsForRange(start, last.AddDate(0, 0, 1)), loc)
		default:
			day, err := commands.ResolveDate(date, now, loc)
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), a.svc.EventsForDate(day), loc)
		}
		return nil
	})
	return cmd
}

func (a *app) newUpdateCommand() *cobra.Command {
	var f eventFlags
	var title string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an event",
		Args:  cobra.ExactArgs(1),
	}
	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		current, err := a.svc.GetEvent(args[0])
		if err != nil {
			return err
		}
		patch, err := f.patch(cmd, title, current, a.svc.Now(), a.svc.Location())
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to update for %s", args[0])
		}
		updated, err := a.svc.UpdateEvent(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %q %s [%s]\n", updated.Title, formatWhen(updated, a.svc.Location()), updated.ID)
		return nil
	})
	return cmd
}

// patch builds a partial update from the flags the user actually set.
func (f *eventFlags) patch(cmd *cobra.Command, title string, current model.Event, now time.Time, loc *time.Location) (model.Patch, error) {
	changed := cmd.Flags().Changed
	var p model.Patch
	if changed("title") {
		p.Title = &title
	}
	if changed("description") {
		p.Description = &f.description
	}
	if changed("location") {
		p.Location = &f.location
	}
	if changed("all-day") {
		p.AllDay = &f.allDay
	}
	if changed("recur") {
		p.Recurrence = &f.recurrence
	}
	if changed("tag") {
		tags := cleanTags(f.tags)
		p.Tags = &tags
	}
	if changed("reminder") {
		reminders, err := parseReminders(f.reminders)
		if err != nil {
			return model.Patch{}, err
		}
		p.Reminders = &reminders
	}
	if changed("priority") {
		prio, err := model.ParsePriority(f.priority)
		if err != nil {
			return model.Patch{}, err
		}
		p.Priority = &prio
	}
	if changed("type") {
		typ, err := model.ParseEventType(f.eventType)
		if err != nil {
			return model.Patch{}, err
		}
		p.Type = &typ
	}

	switch {
	case changed("at"):
		if !changed("all-day") {
			f.allDay = current.AllDay
		}
		if !changed("for") && !f.allDay {
			f.minutes = int(current.Duration() / time.Minute)
			if f.minutes <= 0 {
				f.minutes = 60
			}
		}
		start, end, err := f.interval(now, loc)
		if err != nil {
			return model.Patch{}, err
		}
		p.StartTime, p.EndTime = &start, &end
	case changed("for"):
		if f.minutes <= 0 {
			return model.Patch{}, fmt.Errorf("--for must be positive, got %d", f.minutes)
		}
		end := current.StartTime.Add(time.Duration(f.minutes) * time.Minute)
		p.EndTime = &end
	}
	return p, nil
}

func (a *app) newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: a.session(false, func(cmd *cobra.Command, args []string) error {
			removed, err := a.svc.DeleteEvent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q [%s]\n", removed.Title, removed.ID)
			return nil
		}),
	}
}
