package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/slotd/internal/scheduler"
	"github.com/sandeepkv93/slotd/internal/update"
)

func (a *app) newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive calendar",
		Long: `Open the full-screen calendar. Logs go to log_file from the config
since the terminal is taken over by the UI.`,
		Args: cobra.NoArgs,
		RunE: a.session(true, func(cmd *cobra.Command, _ []string) error {
			engine := scheduler.NewEngine(a.cfg.ReminderBuffer)
			engine.Start()
			defer engine.Stop()

			m := update.NewModel(a.svc, update.Options{
				Context:   cmd.Context(),
				Scheduler: engine,
				Logger:    &a.log,
			})
			program := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err := program.Run()
			return err
		}),
	}
}
