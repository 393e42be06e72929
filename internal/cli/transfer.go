package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/slotd/internal/export"
)

// formatFor picks the explicit format or falls back to the file extension.
func formatFor(explicit, path string) (export.Format, error) {
	if explicit != "" {
		return export.ParseFormat(explicit)
	}
	if ext := filepath.Ext(path); ext != "" {
		return export.ParseFormat(ext)
	}
	return "", errors.New("cannot infer format, pass --format")
}

func (a *app) newExportCommand() *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every event as ICS, JSON or CSV",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&format, "format", "", "ics, json or csv (default from --out, else ics)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, _ []string) error {
		if format == "" && outPath == "" {
			format = string(export.FormatICS)
		}
		f, err := formatFor(format, outPath)
		if err != nil {
			return err
		}
		list := a.svc.Events()
		if outPath == "" {
			return export.Write(cmd.OutOrStdout(), f, list)
		}

		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := export.Write(file, f, list); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d events to %s\n", len(list), outPath)
		return nil
	})
	return cmd
}

func (a *app) newImportCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import events from an ICS or JSON file",
		Long: `Import events from an ICS calendar or a slotd JSON export. Use "-" to
read standard input together with --format. Events whose id or UID is
already known are skipped.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&format, "format", "", "ics or json (default from the file extension)")
	cmd.RunE = a.session(false, func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := formatFor(format, path)
		if err != nil {
			return err
		}

		var r io.Reader
		if path == "-" {
			r = cmd.InOrStdin()
		} else {
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()
			r = file
		}

		out := cmd.OutOrStdout()
		switch f {
		case export.FormatICS:
			items, skipped, err := export.ReadICS(r, a.svc.Location())
			if err != nil {
				return err
			}
			for _, e := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "Skipped: %v\n", e)
			}
			created, err := a.svc.ImportDrafts(cmd.Context(), items)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d of %d events\n", len(created), len(items))
		case export.FormatJSON:
			list, err := export.ReadJSON(r)
			if err != nil {
				return err
			}
			n, err := a.svc.ImportEvents(cmd.Context(), list)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d of %d events\n", n, len(list))
		default:
			return fmt.Errorf("import from %s is not supported", f)
		}
		return nil
	})
	return cmd
}

func (a *app) newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [integration]",
		Short: "Push events to integrations and import what they offer",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.session(false, func(cmd *cobra.Command, args []string) error {
			names := a.svc.Integrations()
			if len(args) == 1 {
				names = args
			}
			if len(names) == 0 {
				return errors.New("no integrations configured, set ics_sync_path")
			}
			var errs []error
			for _, name := range names {
				res, imported, err := a.svc.Sync(cmd.Context(), name)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: pushed %d, imported %d\n", name, res.Pushed, len(imported))
			}
			return errors.Join(errs...)
		}),
	}
}
