package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/reschedule"
	"github.com/sandeepkv93/slotd/internal/views"
)

func parseMinutes(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("duration must be a positive number of minutes, got %q", raw)
	}
	return n, nil
}

func (a *app) newSlotsCommand() *cobra.Command {
	var date, priority string
	cmd := &cobra.Command{
		Use:   "slots <minutes>",
		Short: "List free slots on a day",
		Long: `List free slots of the given length inside the working window.
With --priority the slots are ranked by score instead of listed by time.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&date, "date", "today", "Day to search")
	cmd.Flags().StringVar(&priority, "priority", "", "Rank slots for this priority")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		minutes, err := parseMinutes(args[0])
		if err != nil {
			return err
		}
		loc := a.svc.Location()
		day, err := commands.ResolveDate(date, a.svc.Now(), loc)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if priority == "" {
			free, err := a.svc.AvailableSlots(day, minutes)
			if err != nil {
				return err
			}
			if len(free) == 0 {
				fmt.Fprintln(out, "No free slots.")
				return nil
			}
			for _, s := range free {
				fmt.Fprintln(out, formatSpan(s, loc))
			}
			return nil
		}

		prio, err := model.ParsePriority(priority)
		if err != nil {
			return err
		}
		ranked, err := a.svc.RankedSlots(day, minutes, prio)
		if err != nil {
			return err
		}
		if len(ranked) == 0 {
			fmt.Fprintln(out, "No free slots.")
			return nil
		}
		for _, r := range ranked {
			fmt.Fprintf(out, "%s  score %d\n", formatSpan(r.Slot, loc), r.Score)
		}
		return nil
	})
	return cmd
}

func (a *app) newBestCommand() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "best <minutes>",
		Short: "Suggest the best start time today",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "Priority of the event to place")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		minutes, err := parseMinutes(args[0])
		if err != nil {
			return err
		}
		prio, err := model.ParsePriority(priority)
		if err != nil {
			return err
		}
		start, ok, err := a.svc.SuggestBestTime(minutes, prio)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No free slot left today.")
			return nil
		}
		slot := model.NewSlot(start, time.Duration(minutes)*time.Minute)
		fmt.Fprintf(cmd.OutOrStdout(), "%s  score %d\n", formatSpan(slot, a.svc.Location()), a.svc.ScoreSlot(slot, prio))
		return nil
	})
	return cmd
}

func (a *app) newConflictsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts <id>",
		Short: "Show events overlapping an event",
		Args:  cobra.ExactArgs(1),
		RunE: a.session(false, func(cmd *cobra.Command, args []string) error {
			lines, err := a.svc.AnalyzeConflicts(args[0])
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conflicts.")
				return nil
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		}),
	}
}

func (a *app) newAnalyzeCommand() *cobra.Command {
	var period, date, from, to string
	var markdown, render, asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report how scheduled time was spent",
		Args:  cobra.NoArgs,
	}
	fs := cmd.Flags()
	fs.StringVar(&period, "period", string(productivity.PeriodWeek), "day, week or month")
	fs.StringVar(&date, "date", "today", "Any day inside the period")
	fs.StringVar(&from, "from", "", "First day of a custom period")
	fs.StringVar(&to, "to", "", "Last day of a custom period (inclusive)")
	fs.BoolVar(&markdown, "markdown", false, "Print the report as markdown")
	fs.BoolVar(&render, "render", false, "Render the markdown report for the terminal")
	fs.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.MarkFlagsRequiredTogether("from", "to")
	cmd.MarkFlagsMutuallyExclusive("markdown", "render", "json")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, _ []string) error {
		loc, now := a.svc.Location(), a.svc.Now()
		var (
			report productivity.Analysis
			err    error
		)
		if from != "" {
			start, serr := commands.ResolveDate(from, now, loc)
			if serr != nil {
				return serr
			}
			last, lerr := commands.ResolveDate(to, now, loc)
			if lerr != nil {
				return lerr
			}
			if last.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}
			report, err = a.svc.GenerateProductivityAnalysis(cmd.Context(), productivity.PeriodCustom, start, last.AddDate(0, 0, 1).Add(-time.Nanosecond))
		} else {
			p, perr := productivity.ParsePeriod(period)
			if perr != nil {
				return perr
			}
			ref, derr := commands.ResolveDate(date, now, loc)
			if derr != nil {
				return derr
			}
			report, err = a.svc.AnalyzePeriod(cmd.Context(), p, ref)
		}
		if err != nil && report.ID == "" {
			return err
		}
		if err != nil {
			a.log.Warn().Err(err).Msg("analysis not stored")
		}

		out := cmd.OutOrStdout()
		switch {
		case asJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case markdown:
			_, err := io.WriteString(out, report.Markdown(loc))
			return err
		case render:
			_, err := io.WriteString(out, views.RenderMarkdown(report.Markdown(loc), 80))
			return err
		default:
			printAnalysis(out, report, loc)
			return nil
		}
	})
	return cmd
}

func printAnalysis(w io.Writer, r productivity.Analysis, loc *time.Location) {
	fmt.Fprintf(w, "%s %s to %s\n", r.Period, r.StartDate.In(loc).Format(dayLayout), r.EndDate.In(loc).Format(dayLayout))
	fmt.Fprintf(w, "  events:      %d\n", r.TotalEvents)
	fmt.Fprintf(w, "  scheduled:   %d min (avg %.0f)\n", r.TotalDurationMinutes, r.AverageEventDurationMinutes)
	fmt.Fprintf(w, "  conflicts:   %d\n", r.ConflictCount)
	fmt.Fprintf(w, "  reschedules: %d\n", r.RescheduleCount)
	if r.MostProductiveDay != "" {
		fmt.Fprintf(w, "  busiest day: %s\n", r.MostProductiveDay)
	}
	if r.MostProductiveHour >= 0 {
		fmt.Fprintf(w, "  busiest hour: %02d:00\n", r.MostProductiveHour)
	}
}

func (a *app) newRescheduleCommand() *cobra.Command {
	var apply int
	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Suggest a new time for an event, optionally applying it",
		Long: `Print a reschedule suggestion for the event. The suggested time is
choice 0 and each alternative follows as 1, 2, ... Pass --apply N to move
the event onto choice N right away.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&apply, "apply", -1, "Apply choice N of the suggestion")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		list, err := a.svc.GenerateRescheduleSuggestions(args[0])
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("no reschedule suggestion available")
		}
		loc := a.svc.Location()
		out := cmd.OutOrStdout()
		sg := list[0]
		printSuggestion(out, sg, loc)

		if !cmd.Flags().Changed("apply") {
			return nil
		}
		moved, err := a.svc.ApplyRescheduleChoice(cmd.Context(), sg.ID, apply)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Moved %q to %s\n", moved.Title, formatWhen(moved, loc))
		return nil
	})
	return cmd
}

func printSuggestion(w io.Writer, sg reschedule.Suggestion, loc *time.Location) {
	fmt.Fprintf(w, "%s  now %s\n", sg.EventTitle, formatSpan(sg.OriginalTime, loc))
	fmt.Fprintf(w, "  0) %s  %.0f%%  %s\n", formatSpan(sg.SuggestedTime, loc), sg.Confidence*100, sg.Reason)
	for i, alt := range sg.Alternatives {
		fmt.Fprintf(w, "  %d) %s  %.0f%%  %s\n", i+1, formatSpan(alt.Time, loc), alt.Confidence*100, alt.Reason)
	}
}
