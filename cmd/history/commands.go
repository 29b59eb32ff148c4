package history

import "github.com/spf13/cobra"

// Actions defines operations on the local upload history.
type Actions interface {
	List(cmd *cobra.Command, args []string) error
	Show(cmd *cobra.Command, args []string) error
	Prune(cmd *cobra.Command, args []string) error
	Clear(cmd *cobra.Command, args []string) error
}

// Command builds the "history" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past uploads",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded uploads, newest first",
		Args:    cobra.NoArgs,
		RunE:    h.List,
	}
	listCmd.Flags().Bool("json", false, "print records as JSON")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one upload including its recognized text (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Show,
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Keep only the newest records",
		Args:  cobra.NoArgs,
		RunE:  h.Prune,
	}
	pruneCmd.Flags().Int("keep", 50, "number of records to keep") //nolint:mnd

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all recorded uploads",
		Args:  cobra.NoArgs,
		RunE:  h.Clear,
	}

	historyCmd.AddCommand(listCmd, showCmd, pruneCmd, clearCmd)
	return historyCmd
}

// Commands returns the top-level commands contributed by this package.
func Commands(h Actions) []*cobra.Command {
	return []*cobra.Command{Command(h)}
}
