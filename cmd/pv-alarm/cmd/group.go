package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/service/admin"
)

var (
	// groupDescription is the description of a new group.
	groupDescription string
	// groupDisabled creates the group switched off.
	groupDisabled bool

	// groupCmd groups the group management subcommands.
	groupCmd = &cobra.Command{
		Use:   "group",
		Short: "Manage alarm groups.",
	}

	// groupListCmd prints stored groups.
	groupListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored groups.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			groups, err := service.Groups(ctx)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tENABLED\tDESCRIPTION")

			for _, group := range groups {
				_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", group.Name, group.Enabled, group.Description)
			}

			return w.Flush()
		},
	}

	// groupCreateCmd stores a new group.
	groupCreateCmd = &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			created, err := service.CreateGroup(ctx, document.Group{
				Name:        args[0],
				Enabled:     !groupDisabled,
				Description: groupDescription,
			})
			if err != nil {
				return fmt.Errorf("create group: %w", err)
			}

			if !created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "group %q already exists\n", args[0])
			}

			return nil
		},
	}

	// groupEnableCmd switches a group on.
	groupEnableCmd = newGroupSwitchCommand("enable", "Enable a group.", true)
	// groupDisableCmd switches a group off.
	groupDisableCmd = newGroupSwitchCommand("disable", "Disable a group.", false)
)

// newGroupSwitchCommand builds the enable and disable subcommands.
// A running monitor picks the change up on its next group sync.
func newGroupSwitchCommand(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			service, closeRepo, err := admin.Open(ctx, configPath)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err = service.SetGroupEnabled(ctx, args[0], enabled); err != nil {
				return fmt.Errorf("%s group %q: %w", use, args[0], err)
			}

			return nil
		},
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	groupCreateCmd.Flags().StringVarP(&groupDescription, "description", "d", "", "group description")
	groupCreateCmd.Flags().BoolVar(&groupDisabled, "disabled", false, "create the group switched off")

	groupCmd.AddCommand(groupListCmd, groupCreateCmd, groupEnableCmd, groupDisableCmd)
}
