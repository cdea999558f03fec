package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aliskhannn/spanish-trainer/internal/export"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and repair learner progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&c.configDir, "config", "c", "", "Directory containing config.yaml")
	cmd.PersistentFlags().Int64VarP(&c.userID, "user", "u", 0, "Telegram user id")
	cmd.PersistentFlags().BoolVar(&c.localOnly, "local-only", false, "Use only the local store, skip Postgres")

	cmd.AddCommand(
		newShowCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newResetCmd(c),
		newVocabCmd(c),
	)

	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the progress summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withLedger(cmd.Context(), func(l *service.Ledger) error {
				printSummary(cmd.OutOrStdout(), l.Summary(cmd.Context()))
				return nil
			})
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write progress and settings as JSON (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(cmd.Context(), func(l *service.Ledger) error {
				data, err := json.MarshalIndent(l.Export(cmd.Context()), "", "  ")
				if err != nil {
					return fmt.Errorf("encode export: %w", err)
				}
				data = append(data, '\n')

				if len(args) == 0 {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := afero.WriteFile(c.fs, args[0], data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace progress with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(c.fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			return c.withLedger(cmd.Context(), func(l *service.Ledger) error {
				if err := l.Import(cmd.Context(), data); err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), l.Summary(cmd.Context()))
				return nil
			})
		},
	}
}

func newResetCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset progress, keeping settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			return c.withLedger(cmd.Context(), func(l *service.Ledger) error {
				l.ResetProgress(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "progress of user %d reset\n", c.userID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}

func newVocabCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab <out.xlsx>",
		Short: "Write the vocabulary to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(cmd.Context(), func(l *service.Ledger) error {
				f, err := c.fs.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}

				if err := export.WriteVocabulary(f, l.Progress(cmd.Context())); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "vocabulary written to %s\n", args[0])
				return nil
			})
		},
	}
}

func printSummary(w io.Writer, s service.Summary) {
	fmt.Fprintf(w, "day:        %s\n", s.DayKey)
	fmt.Fprintf(w, "xp:         %d total, %d today (goal %d, %d%%)\n", s.XPTotal, s.XPToday, s.DailyGoalXP, s.GoalProgress)
	fmt.Fprintf(w, "streak:     %d\n", s.Streak)
	fmt.Fprintf(w, "answers:    %d today, %d correct (%d%%)\n", s.AnsweredToday, s.CorrectToday, s.Accuracy)
	fmt.Fprintf(w, "words:      %d\n", s.WordsLearned)
	fmt.Fprintf(w, "lessons:    %d\n", s.LessonsCompleted)
}
