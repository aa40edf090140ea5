package cli

import (
	"fmt"
	"strings"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/spf13/cobra"
)

func newTickCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one schedule check now and open any due URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.worker(alarm.NewService()).Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Checked %d schedule(s) at %s\n", r.Checked, r.At.Format("2006-01-02 15:04"))
			if len(r.Fired) == 0 {
				fmt.Fprintln(opts.out, "Nothing due.")
				return nil
			}
			fmt.Fprintf(opts.out, "Fired: %s\n", strings.Join(r.Fired, ", "))
			if len(r.Failed) > 0 {
				fmt.Fprintf(opts.out, "Failed to open: %s\n", strings.Join(r.Failed, ", "))
			}
			if len(r.Unmarked) > 0 {
				fmt.Fprintf(opts.out, "Could not record trigger for: %s\n", strings.Join(r.Unmarked, ", "))
			}
			return nil
		},
	}
}
