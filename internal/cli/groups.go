package cli

import (
	"fmt"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/spf13/cobra"
)

func newGroupsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"g"},
		Short:   "Manage tab groups",
	}
	cmd.AddCommand(
		newGroupsListCmd(opts),
		newGroupsAddCmd(opts),
		newGroupsEditCmd(opts),
		newGroupsRmCmd(opts),
	)
	return cmd
}

func newGroupsListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			groups, err := a.store.Groups(ctx)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(opts.out, "No groups yet.")
				return nil
			}
			schedules, err := a.store.Schedules(ctx)
			if err != nil {
				return err
			}
			counts := map[string]int{}
			for _, s := range schedules {
				counts[s.Group()]++
			}

			tw := newTable(opts.out)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tSCHEDULES")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%d\n", g.ID, g.Name, g.Color, g.Color.Hex(), counts[g.ID])
			}
			return tw.Flush()
		},
	}
}

func newGroupsAddCmd(opts *options) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.store.AddGroup(cmd.Context(), name, model.Color(color))
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Added group %s: %s (%s)\n", g.ID, g.Name, g.Color)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Group name")
	cmd.Flags().StringVarP(&color, "color", "c", string(model.ColorBlue), "Group color")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newGroupsEditCmd(opts *options) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Rename or recolor a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			id, err := resolveGroup(ctx, a.store, args[0])
			if err != nil {
				return err
			}
			cur, err := a.store.Group(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				cur.Name = name
			}
			if cmd.Flags().Changed("color") {
				cur.Color = model.Color(color)
			}
			g, err := a.store.UpdateGroup(ctx, cur.ID, cur.Name, cur.Color)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Updated group %s: %s (%s)\n", g.ID, g.Name, g.Color)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&color, "color", "c", "", "New color")
	cmd.MarkFlagsOneRequired("name", "color")
	return cmd
}

func newGroupsRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"delete"},
		Short:   "Delete a group; its schedules become ungrouped",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			id, err := resolveGroup(ctx, a.store, args[0])
			if err != nil {
				return err
			}
			n, err := a.store.DeleteGroup(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Deleted group %s, %d schedule(s) ungrouped\n", id, n)
			return nil
		},
	}
}
