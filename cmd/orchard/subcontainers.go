package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/engine"
)

func newSubContainerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sub",
		Aliases: []string{"s"},
		Short:   "Manage sub-containers",
	}

	list := &cobra.Command{
		Use:   "list <container-id>",
		Short: "List the sub-containers of a container in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			subs, err := svc.ListSubContainers(cmd.Context(), a.opts.owner, args[0])
			if err != nil {
				return err
			}
			printSubContainers(cmd.OutOrStdout(), subs)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one sub-container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			sc, err := svc.GetSubContainer(cmd.Context(), a.opts.owner, args[0])
			if err != nil {
				return err
			}
			printSubContainer(cmd.OutOrStdout(), sc)
			return nil
		},
	}

	var color, icon string
	create := &cobra.Command{
		Use:   "create <container-id> <name>",
		Short: "Create a sub-container at the bottom of its container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			id, err := svc.CreateSubContainer(cmd.Context(), a.opts.owner, args[0], engine.SubContainerInput{
				Name:  args[1],
				Color: resolveColor(color),
				Icon:  icon,
			})
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "created sub-container "+id)
			return nil
		},
	}
	create.Flags().StringVar(&color, "color", "", "palette name or hex color")
	create.Flags().StringVar(&icon, "icon", "", "optional icon")

	var patchName, patchColor, patchIcon string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a sub-container's name, color or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			patch := engine.SubContainerPatch{
				Name:  changed(cmd, "name", patchName),
				Color: changed(cmd, "color", resolveColor(patchColor)),
				Icon:  changed(cmd, "icon", patchIcon),
			}
			if err := svc.UpdateSubContainer(cmd.Context(), a.opts.owner, args[0], patch); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "updated sub-container "+args[0])
			return nil
		},
	}
	update.Flags().StringVar(&patchName, "name", "", "new name")
	update.Flags().StringVar(&patchColor, "color", "", "palette name or hex color")
	update.Flags().StringVar(&patchIcon, "icon", "", "new icon (empty clears it)")

	var mode string
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sub-container, relocating or purging its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := engine.ParseDeleteMode(mode)
			if err != nil {
				return err
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.DeleteSubContainer(cmd.Context(), a.opts.owner, args[0], m); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "deleted sub-container "+args[0]+" ("+mode+")")
			return nil
		},
	}
	del.Flags().StringVar(&mode, "mode", string(engine.Relocate), "what to do with the items: relocate or purge")

	reorder := &cobra.Command{
		Use:   "reorder <container-id> <id>...",
		Short: "Set the order of all sub-containers of a container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.ReorderSubContainers(cmd.Context(), a.opts.owner, args[0], args[1:]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "reordered "+pluralize(len(args)-1, "sub-container"))
			return nil
		},
	}

	cmd.AddCommand(list, show, create, update, del, reorder)
	return cmd
}
