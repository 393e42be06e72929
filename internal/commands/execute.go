package commands

import "fmt"

type Result struct {
	Message string
}

// Handlers binds each command type to its implementation. A nil handler makes
// the command fail with ErrCodeHandlerMissing.
type Handlers struct {
	Add        func(AddArgs) (Result, error)
	Slots      func(SlotsArgs) (Result, error)
	Best       func(BestArgs) (Result, error)
	Conflicts  func(TargetArgs) (Result, error)
	Analyze    func(AnalyzeArgs) (Result, error)
	Reschedule func(TargetArgs) (Result, error)
	Apply      func(ApplyArgs) (Result, error)
	Delete     func(TargetArgs) (Result, error)
	Show       func(ShowArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return run(cmd.Type, handlers.Add, cmd.Add)
	case TypeSlots:
		return run(cmd.Type, handlers.Slots, cmd.Slots)
	case TypeBest:
		return run(cmd.Type, handlers.Best, cmd.Best)
	case TypeConflicts:
		return run(cmd.Type, handlers.Conflicts, cmd.Conflicts)
	case TypeAnalyze:
		return run(cmd.Type, handlers.Analyze, cmd.Analyze)
	case TypeReschedule:
		return run(cmd.Type, handlers.Reschedule, cmd.Reschedule)
	case TypeApply:
		return run(cmd.Type, handlers.Apply, cmd.Apply)
	case TypeDelete:
		return run(cmd.Type, handlers.Delete, cmd.Delete)
	case TypeShow:
		return run(cmd.Type, handlers.Show, cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func run[A any](typ Type, handler func(A) (Result, error), args *A) (Result, error) {
	if handler == nil {
		return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", typ)}
	}
	if args == nil {
		return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s command has no arguments", typ)}
	}
	return handler(*args)
}
