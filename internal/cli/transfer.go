package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/noahxzhu/autotab/internal/transfer"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export schedules and groups to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			doc, err := transfer.Export(cmd.Context(), a.store, now)
			if err != nil {
				return err
			}
			if output == "-" {
				return transfer.Write(opts.out, doc)
			}
			if output == "" {
				output = transfer.FileName(now)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := transfer.Write(f, doc); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Exported %d schedule(s) and %d group(s) to %s\n", len(doc.Schedules), len(doc.Groups), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file ("-" for stdout, default autotab-schedules-<date>.json)`)
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import schedules and groups from a JSON export",
		Long:  `Import schedules and groups from a JSON export. Use "-" to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := transfer.Import(cmd.Context(), a.store, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, res.String())
			if res.Skipped > 0 {
				fmt.Fprintf(opts.out, "Skipped %d record(s) that could not be read\n", res.Skipped)
			}
			return nil
		},
	}
}
