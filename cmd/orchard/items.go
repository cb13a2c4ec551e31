package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/engine"
	"github.com/jacentio/orchard/internal/scope"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"i"},
		Short:   "Manage items",
	}

	var in string
	list := &cobra.Command{
		Use:   "list <container-id>",
		Short: "List items: pending in order, then complete in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			items, err := svc.ListItems(cmd.Context(), a.opts.owner, args[0], engine.ParseItemFilter(in))
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	list.Flags().StringVar(&in, "in", "all", `"all", "`+scope.Root+`" or a sub-container ID`)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			it, err := svc.GetItem(cmd.Context(), a.opts.owner, args[0])
			if err != nil {
				return err
			}
			printItem(cmd.OutOrStdout(), it)
			return nil
		},
	}

	var sub, notes string
	add := &cobra.Command{
		Use:   "add <container-id> <title>",
		Short: "Add a pending item at the top of its list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			id, err := svc.CreateItem(cmd.Context(), a.opts.owner, args[0], engine.ItemInput{
				SubContainerID: sub,
				Title:          args[1],
				Notes:          notes,
			})
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "added item "+id)
			return nil
		},
	}
	add.Flags().StringVar(&sub, "sub", "", "sub-container ID (default: container root)")
	add.Flags().StringVar(&notes, "notes", "", "notes")

	var patchTitle, patchNotes string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item's title or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			patch := engine.ItemPatch{
				Title: changed(cmd, "title", patchTitle),
				Notes: changed(cmd, "notes", patchNotes),
			}
			if err := svc.UpdateItem(cmd.Context(), a.opts.owner, args[0], patch); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "updated item "+args[0])
			return nil
		},
	}
	edit.Flags().StringVar(&patchTitle, "title", "", "new title")
	edit.Flags().StringVar(&patchNotes, "notes", "", "new notes (empty clears them)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.DeleteItem(cmd.Context(), a.opts.owner, args[0]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "deleted item "+args[0])
			return nil
		},
	}

	reorder := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the order of every item in one list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.ReorderItems(cmd.Context(), a.opts.owner, args); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "reordered "+pluralize(len(args), "item"))
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip an item between pending and complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.ToggleItemStatus(cmd.Context(), a.opts.owner, args[0]); err != nil {
				return err
			}
			it, err := svc.GetItem(cmd.Context(), a.opts.owner, args[0])
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), itemLine(it))
			return nil
		},
	}

	var to string
	move := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an item to another sub-container or to the container root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.MoveItem(cmd.Context(), a.opts.owner, args[0], to); err != nil {
				return err
			}
			dest := to
			if dest == "" {
				dest = scope.Root
			}
			ok(cmd.OutOrStdout(), "moved item "+args[0]+" to "+dest)
			return nil
		},
	}
	move.Flags().StringVar(&to, "to", "", "target sub-container ID (default: container root)")

	cmd.AddCommand(list, show, add, edit, del, reorder, toggle, move)
	return cmd
}
