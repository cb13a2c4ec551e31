package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/orchard/store/dynamo"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "orchard",
		Short:         "Ordered containers, sub-containers and items",
		Long:          `A CLI for organizing work items inside containers and sub-containers, with manual ordering, status toggling and cascading deletes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.ErrOrStderr())
		},
	}
	a.bindFlags(root)

	root.AddCommand(
		newInitCmd(a),
		newPaletteCmd(),
		newContainerCmd(a),
		newSubContainerCmd(a),
		newItemCmd(a),
		newCompactCmd(a),
		newSweepCmd(a),
	)
	return root
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the storage schema or DynamoDB tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.backend == backendDynamo {
				client, err := a.dynamoClient(cmd.Context())
				if err != nil {
					return err
				}
				cfg := a.dynamoConfig()
				if err := dynamo.CreateTables(cmd.Context(), client, cfg); err != nil {
					return err
				}
				ok(cmd.OutOrStdout(), "created tables "+cfg.ContainersTable+", "+cfg.SubContainersTable+", "+cfg.ItemsTable)
				return nil
			}
			// Opening a SQL backend creates its schema.
			if _, err := a.service(cmd); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "initialized "+a.opts.backend+" store")
			return nil
		},
	}
}

func newPaletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "List the available colors",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printPalette(cmd.OutOrStdout())
		},
	}
}

func newCompactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact <partition>",
		Short: "Re-rank one partition to 0..n-1",
		Long: `Re-rank one partition to 0..n-1. Partitions are written as
  owner#<ownerID>
  container#<containerID>
  container#<containerID>#<subContainerID|root>#<pending|complete>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parsePartition(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			changed, err := svc.Compact(cmd.Context(), key)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), pluralize(changed, "record")+" re-ranked")
			return nil
		},
	}
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep <containerID> [subContainerID]",
		Short: "Clean up records left behind by a deleted parent",
		Long: `Delete the items and sub-containers still pointing at a deleted container, or
move the items still pointing at a deleted sub-container to the container root.
A parent that still exists is left alone.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				moved, err := svc.SweepSubContainer(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				ok(cmd.OutOrStdout(), pluralize(moved, "item")+" moved to root")
				return nil
			}
			removed, err := svc.SweepContainer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), pluralize(removed, "record")+" removed")
			return nil
		},
	}
}
