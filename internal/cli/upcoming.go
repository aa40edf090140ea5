package cli

import (
	"fmt"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/trigger"
	"github.com/spf13/cobra"
)

func newUpcomingCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next scheduled openings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return &model.ValidationError{Field: "limit", Reason: "must not be negative"}
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.store.Schedules(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			items := trigger.Upcoming(list, now, limit)
			if len(items) == 0 {
				fmt.Fprintln(opts.out, "Nothing scheduled.")
				return nil
			}
			tw := newTable(opts.out)
			fmt.Fprintln(tw, "WHEN\tIN\tURL")
			for _, o := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.At.Format("Mon 2006-01-02 15:04"), trigger.RelativeTime(o.At, now), o.Schedule.URL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of entries to show")
	return cmd
}
