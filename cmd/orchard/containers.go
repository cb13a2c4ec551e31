package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/engine"
)

func newContainerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "container",
		Aliases: []string{"c"},
		Short:   "Manage containers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List containers in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			cs, err := svc.ListContainers(cmd.Context(), a.opts.owner)
			if err != nil {
				return err
			}
			printContainers(cmd.OutOrStdout(), cs)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			c, err := svc.GetContainer(cmd.Context(), a.opts.owner, args[0])
			if err != nil {
				return err
			}
			printContainer(cmd.OutOrStdout(), c)
			return nil
		},
	}

	var color, icon string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a container at the bottom of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			id, err := svc.CreateContainer(cmd.Context(), a.opts.owner, engine.ContainerInput{
				Name:  args[0],
				Color: resolveColor(color),
				Icon:  icon,
			})
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "created container "+id)
			return nil
		},
	}
	create.Flags().StringVar(&color, "color", "", "palette name or hex color")
	create.Flags().StringVar(&icon, "icon", "", "icon (default "+engine.DefaultIcon+")")

	var patchName, patchColor, patchIcon string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a container's name, color or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			patch := engine.ContainerPatch{
				Name:  changed(cmd, "name", patchName),
				Color: changed(cmd, "color", resolveColor(patchColor)),
				Icon:  changed(cmd, "icon", patchIcon),
			}
			if err := svc.UpdateContainer(cmd.Context(), a.opts.owner, args[0], patch); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "updated container "+args[0])
			return nil
		},
	}
	update.Flags().StringVar(&patchName, "name", "", "new name")
	update.Flags().StringVar(&patchColor, "color", "", "palette name or hex color")
	update.Flags().StringVar(&patchIcon, "icon", "", "new icon")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a container with all of its sub-containers and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.DeleteContainer(cmd.Context(), a.opts.owner, args[0]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "deleted container "+args[0])
			return nil
		},
	}

	reorder := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the order of all containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if err := svc.ReorderContainers(cmd.Context(), a.opts.owner, args); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "reordered "+pluralize(len(args), "container"))
			return nil
		},
	}

	cmd.AddCommand(list, show, create, update, del, reorder)
	return cmd
}
