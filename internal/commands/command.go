package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
)

type Type string

const (
	TypeAdd        Type = "add"
	TypeSlots      Type = "slots"
	TypeBest       Type = "best"
	TypeConflicts  Type = "conflicts"
	TypeAnalyze    Type = "analyze"
	TypeReschedule Type = "reschedule"
	TypeApply      Type = "apply"
	TypeDelete     Type = "delete"
	TypeShow       Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// TargetSelected refers to the event under the cursor.
const TargetSelected = "selected"

// AddArgs is `add <title> at <when> for <minutes> [!priority] [#tag] [type:<t>]`.
type AddArgs struct {
	Title    string
	When     string
	Minutes  int
	Priority model.Priority
	Type     model.EventType
	Tags     []string
}

type SlotsArgs struct {
	Minutes int
	Date    string
}

type BestArgs struct {
	Minutes  int
	Priority model.Priority
}

// TargetArgs names one event, either by id or as "selected".
type TargetArgs struct {
	Target string
}

type AnalyzeArgs struct {
	Period productivity.Period
}

// ApplyArgs is `apply <suggestion-id|first> [choice]`.
type ApplyArgs struct {
	Target string
	Choice int
}

type ShowArgs struct {
	Date string
}

type Command struct {
	Type       Type
	Raw        string
	Add        *AddArgs
	Slots      *SlotsArgs
	Best       *BestArgs
	Conflicts  *TargetArgs
	Analyze    *AnalyzeArgs
	Reschedule *TargetArgs
	Apply      *ApplyArgs
	Delete     *TargetArgs
	Show       *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeSlots:
		return parseSlots(input, args)
	case TypeBest:
		return parseBest(input, args)
	case TypeConflicts, TypeReschedule, TypeDelete:
		return parseTarget(input, Type(head), args)
	case TypeAnalyze:
		return parseAnalyze(input, args)
	case TypeApply:
		return parseApply(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{Tags: []string{}}
	var words []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "!") && len(arg) > 1:
			p, err := model.ParsePriority(arg[1:])
			if err != nil {
				return Command{}, invalid("unknown priority %q", arg[1:])
			}
			out.Priority = p
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			out.Tags = append(out.Tags, arg[1:])
		case strings.HasPrefix(strings.ToLower(arg), "type:"):
			t, err := model.ParseEventType(arg[len("type:"):])
			if err != nil {
				return Command{}, invalid("unknown event type %q", arg[len("type:"):])
			}
			out.Type = t
		default:
			words = append(words, arg)
		}
	}

	atIdx, forIdx := lastIndexFold(words, "at"), lastIndexFold(words, "for")
	if atIdx <= 0 {
		return Command{}, invalid("add requires <title> at <when>")
	}
	if forIdx < atIdx+2 || forIdx != len(words)-2 {
		return Command{}, invalid("add requires for <minutes> after the time")
	}
	minutes, err := parseMinutes(words[forIdx+1])
	if err != nil {
		return Command{}, err
	}
	out.Title = strings.Join(words[:atIdx], " ")
	out.When = strings.Join(words[atIdx+1:forIdx], " ")
	out.Minutes = minutes
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseSlots(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("slots requires a duration in minutes")
	}
	minutes, err := parseMinutes(args[0])
	if err != nil {
		return Command{}, err
	}
	date := "today"
	if len(args) > 1 {
		date = strings.ToLower(strings.Join(args[1:], " "))
	}
	return Command{Type: TypeSlots, Raw: raw, Slots: &SlotsArgs{Minutes: minutes, Date: date}}, nil
}

func parseBest(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("best requires a duration in minutes")
	}
	minutes, err := parseMinutes(args[0])
	if err != nil {
		return Command{}, err
	}
	prio := model.PriorityMedium
	if len(args) > 1 {
		p, err := model.ParsePriority(strings.TrimPrefix(args[1], "!"))
		if err != nil {
			return Command{}, invalid("unknown priority %q", args[1])
		}
		prio = p
	}
	return Command{Type: TypeBest, Raw: raw, Best: &BestArgs{Minutes: minutes, Priority: prio}}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	target := TargetSelected
	if len(args) > 0 {
		target = args[0]
		if strings.EqualFold(target, TargetSelected) {
			target = TargetSelected
		}
	}
	cmd := Command{Type: typ, Raw: raw}
	ta := &TargetArgs{Target: target}
	switch typ {
	case TypeConflicts:
		cmd.Conflicts = ta
	case TypeReschedule:
		cmd.Reschedule = ta
	case TypeDelete:
		cmd.Delete = ta
	}
	return cmd, nil
}

func parseAnalyze(raw string, args []string) (Command, error) {
	period := productivity.PeriodWeek
	if len(args) > 0 {
		p, err := productivity.ParsePeriod(args[0])
		if err != nil || p == productivity.PeriodCustom {
			return Command{}, invalid("analyze supports day, week or month")
		}
		period = p
	}
	return Command{Type: TypeAnalyze, Raw: raw, Analyze: &AnalyzeArgs{Period: period}}, nil
}

func parseApply(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("apply requires a suggestion id or first")
	}
	out := ApplyArgs{Target: args[0]}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return Command{}, invalid("choice must be a non-negative number, got %q", args[1])
		}
		out.Choice = n
	}
	return Command{Type: TypeApply, Raw: raw, Apply: &out}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires a date, today or tomorrow")
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Date: strings.ToLower(strings.Join(args, " "))}}, nil
}

func parseMinutes(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(v), "m"))
	if err != nil || n <= 0 {
		return 0, invalid("duration must be a positive number of minutes, got %q", v)
	}
	return n, nil
}

func lastIndexFold(words []string, target string) int {
	for i := len(words) - 1; i >= 0; i-- {
		if strings.EqualFold(words[i], target) {
			return i
		}
	}
	return -1
}
