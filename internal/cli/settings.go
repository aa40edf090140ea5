package cli

import (
	"fmt"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/spf13/cobra"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts), newSettingsSetCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store.Settings(cmd.Context())
			if err != nil {
				return err
			}
			printSettings(opts, st)
			return nil
		},
	}
}

func newSettingsSetCmd(opts *options) *cobra.Command {
	var notifications bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store.UpdateSettings(cmd.Context(), func(s *model.Settings) {
				if cmd.Flags().Changed("notifications") {
					s.Notifications = notifications
				}
			})
			if err != nil {
				return err
			}
			printSettings(opts, st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Show a notification when tabs open")
	_ = cmd.MarkFlagRequired("notifications")
	return cmd
}

func printSettings(opts *options, st model.Settings) {
	fmt.Fprintf(opts.out, "notifications: %s\n", enabled(st.Notifications))
}
