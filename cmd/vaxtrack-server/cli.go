package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/reminder"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
	"github.com/vaxtrack/vaxtrack/internal/platform/db"
	"github.com/vaxtrack/vaxtrack/internal/platform/scope"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect the vaccination schedule",
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the due dates a child born on --birth-date would get",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("birth-date")
			birthDate, err := parseDate("birth-date", raw)
			if err != nil {
				return err
			}
			generator, err := vaccination.NewGenerator(vaccination.DefaultTemplate)
			if err != nil {
				return err
			}
			svc := vaccination.NewService(vaccination.NewMemoryRecordRepo(), generator, zerolog.Nop())
			records, err := svc.PreviewSchedule(birthDate)
			if err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), records)
			return nil
		},
	}
	previewCmd.Flags().String("birth-date", "", "Birth date (YYYY-MM-DD)")
	_ = previewCmd.MarkFlagRequired("birth-date")
	cmd.AddCommand(previewCmd)

	return cmd
}

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Evaluate reminders",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "List the reminders active for a child on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := checkOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.caregiver == "" {
				opts.caregiver = cfg.DefaultCaregiver
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := buildApp(ctx, cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			return runReminderCheck(ctx, cmd.OutOrStdout(), a, opts)
		},
	}
	checkCmd.Flags().String("child", "", "Child id (UUID)")
	checkCmd.Flags().String("date", "", "Evaluate as of this date (YYYY-MM-DD, default today)")
	checkCmd.Flags().String("caregiver", "", "Caregiver scope for reminder settings")
	checkCmd.Flags().String("birth-date", "", "Generate the schedule first for this birth date (YYYY-MM-DD)")
	_ = checkCmd.MarkFlagRequired("child")
	cmd.AddCommand(checkCmd)

	return cmd
}

type checkOptions struct {
	childID   uuid.UUID
	asOf      *time.Time
	birthDate *time.Time
	caregiver string
}

func checkOptionsFromFlags(cmd *cobra.Command) (checkOptions, error) {
	var opts checkOptions

	rawChild, _ := cmd.Flags().GetString("child")
	id, err := uuid.Parse(rawChild)
	if err != nil {
		return opts, fmt.Errorf("invalid --child: %w", err)
	}
	opts.childID = id

	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			return opts, err
		}
		opts.asOf = &d
	}
	if raw, _ := cmd.Flags().GetString("birth-date"); raw != "" {
		d, err := parseDate("birth-date", raw)
		if err != nil {
			return opts, err
		}
		opts.birthDate = &d
	}

	opts.caregiver, _ = cmd.Flags().GetString("caregiver")
	if opts.caregiver != "" && !scope.Valid(opts.caregiver) {
		return opts, fmt.Errorf("invalid --caregiver %q", opts.caregiver)
	}
	return opts, nil
}

func runReminderCheck(ctx context.Context, w io.Writer, a *app, opts checkOptions) error {
	if opts.birthDate != nil {
		if _, _, err := a.vaccines.GenerateSchedule(ctx, opts.childID, *opts.birthDate); err != nil {
			return err
		}
	}
	now := a.reminders.Now()
	if opts.asOf != nil {
		now = *opts.asOf
	}

	reminders, err := a.reminders.ListReminders(ctx, opts.caregiver, opts.childID, now)
	if err != nil {
		return err
	}
	printReminders(w, reminders)
	return nil
}

func parseDate(flag, raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", flag, raw)
	}
	return d, nil
}

func printSchedule(w io.Writer, records []*vaccination.VaccineRecord) {
	fmt.Fprintf(w, "%-14s %-30s %s\n", "AGE GROUP", "VACCINE", "DUE")
	for _, r := range records {
		due := "-"
		if r.DueDate != nil {
			due = r.DueDate.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%-14s %-30s %s\n", r.AgeGroup, r.Name, due)
	}
}

func printReminders(w io.Writer, reminders []reminder.Reminder) {
	if len(reminders) == 0 {
		fmt.Fprintln(w, "No active reminders.")
		return
	}
	for _, r := range reminders {
		fmt.Fprintf(w, "%s  %-10s %s\n", r.DueDate, r.Status, r.Message)
	}
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
