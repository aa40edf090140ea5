package cli

import (
	"fmt"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/spf13/cobra"
)

func newSchedulesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"s"},
		Short:   "Manage scheduled URLs",
	}
	cmd.AddCommand(
		newSchedulesListCmd(opts),
		newSchedulesAddCmd(opts),
		newSchedulesEditCmd(opts),
		newSchedulesRmCmd(opts),
		newSchedulesToggleCmd(opts),
		newSchedulesClearCmd(opts),
	)
	return cmd
}

func newSchedulesListCmd(opts *options) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List schedules",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			var list []model.Schedule
			switch {
			case !cmd.Flags().Changed("group"):
				list, err = a.store.Schedules(ctx)
			case group == "none":
				list, err = a.store.SchedulesByGroup(ctx, "")
			default:
				var id string
				if id, err = resolveGroup(ctx, a.store, group); err == nil {
					list, err = a.store.SchedulesByGroup(ctx, id)
				}
			}
			if err != nil {
				return err
			}
			groups, err := a.store.Groups(ctx)
			if err != nil {
				return err
			}
			names := groupNames(groups)

			if len(list) == 0 {
				fmt.Fprintln(opts.out, "No schedules yet.")
				return nil
			}
			now := time.Now()
			tw := newTable(opts.out)
			fmt.Fprintln(tw, "ID\tURL\tTIME\tENABLED\tGROUP\tRECURRENCE\tNEXT")
			for _, s := range list {
				g := names[s.Group()]
				if g == "" {
					g = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.URL, model.FormatTime12(s.Time), enabled(s.Enabled), g, describe(s), next(s, now))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", `Only show schedules in this group ("none" for ungrouped)`)
	return cmd
}

type draftFlags struct {
	url      string
	time     string
	dates    []string
	days     []string
	group    string
	disabled bool
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "URL to open")
	cmd.Flags().StringVarP(&f.time, "time", "t", "", "Time of day, HH:MM (24h)")
	cmd.Flags().StringSliceVar(&f.dates, "dates", nil, "Specific dates, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "Weekdays, by name or 0-6 (0 = Sunday)")
	cmd.Flags().StringVarP(&f.group, "group", "g", "", "Group name or id")
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Create the schedule disabled")
	cmd.MarkFlagsMutuallyExclusive("dates", "days")
}

// apply overlays the flags that were set onto d.
func (f *draftFlags) apply(cmd *cobra.Command, d *model.Draft) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		d.URL = f.url
	}
	if flags.Changed("time") {
		d.Time = f.time
	}
	switch {
	case flags.Changed("dates"):
		d.Mode = model.ModeSpecificDates
		d.SpecificDates = splitList(f.dates)
		d.DaysOfWeek = nil
	case flags.Changed("days"):
		days, err := parseDays(f.days)
		if err != nil {
			return &model.ValidationError{Field: "daysOfWeek", Reason: err.Error()}
		}
		d.Mode = model.ModeDaysOfWeek
		d.DaysOfWeek = days
		d.SpecificDates = nil
	}
	if flags.Changed("disabled") {
		on := !f.disabled
		d.Enabled = &on
	}
	return nil
}

func newSchedulesAddCmd(opts *options) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a schedule",
		Example: `  autotab schedules add --url example.com --time 09:00 --days mon,wed,fri
  autotab schedules add --url https://example.com/report --time 17:30 --dates 2024-06-10 --group Work`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			var d model.Draft
			if err := f.apply(cmd, &d); err != nil {
				return err
			}
			if d.GroupID, err = resolveGroup(ctx, a.store, f.group); err != nil {
				return err
			}
			existing, err := a.store.Schedules(ctx)
			if err != nil {
				return err
			}
			s, err := a.store.CreateSchedule(ctx, d)
			if err != nil {
				return err
			}
			if dup, found := model.FindDuplicate(existing, s); found {
				fmt.Fprintf(opts.out, "Warning: schedule %s has the same URL, time and days.\n", dup.ID)
			}
			fmt.Fprintf(opts.out, "Added %s: %s at %s, %s\n", s.ID, s.URL, model.FormatTime12(s.Time), describe(s))
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("time")
	cmd.MarkFlagsOneRequired("dates", "days")
	return cmd
}

func newSchedulesEditCmd(opts *options) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a schedule",
		Long: `Edit a schedule. Flags that are not given keep their current value.
A legacy schedule must be given --dates or --days.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			cur, err := a.store.Schedule(ctx, args[0])
			if err != nil {
				return err
			}
			d := model.Draft{
				URL:           cur.URL,
				Time:          cur.Time,
				GroupID:       cur.Group(),
				Mode:          cur.Mode,
				SpecificDates: cur.SpecificDates,
				DaysOfWeek:    cur.DaysOfWeek,
			}
			if err := f.apply(cmd, &d); err != nil {
				return err
			}
			if cmd.Flags().Changed("group") {
				if d.GroupID, err = resolveGroup(ctx, a.store, f.group); err != nil {
					return err
				}
			}
			s, err := a.store.EditSchedule(ctx, cur.ID, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Updated %s: %s at %s, %s\n", s.ID, s.URL, model.FormatTime12(s.Time), describe(s))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newSchedulesRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete schedules",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				if err := a.store.DeleteSchedule(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Deleted %s\n", args[0])
				return nil
			}
			n, err := a.store.DeleteSchedules(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Deleted %d schedule(s)\n", n)
			return nil
		},
	}
}

func newSchedulesToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.store.ToggleSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "disabled"
			if s.Enabled {
				state = "enabled"
			}
			fmt.Fprintf(opts.out, "Schedule %s %s\n", s.ID, state)
			return nil
		},
	}
}

func newSchedulesClearCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all schedules without --yes")
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.ClearSchedules(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Deleted %d schedule(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting every schedule")
	return cmd
}
