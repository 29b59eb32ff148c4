package upload

import "github.com/spf13/cobra"

// Actions defines document submission operations.
type Actions interface {
	Upload(cmd *cobra.Command, args []string) error
	Info(cmd *cobra.Command, args []string) error
	Validate(cmd *cobra.Command, args []string) error
}

// Commands builds the upload command set (upload, info, validate).
func Commands(h Actions) []*cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload [flags] FILE [FILE...]",
		Short: "Upload document(s) for security scan and text recognition",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Upload,
	}
	uploadCmd.Flags().Bool("tui", false, "show an interactive progress view")
	uploadCmd.Flags().Bool("no-history", false, "do not record the upload in the local history")
	uploadCmd.Flags().StringP("output", "o", "auto", "progress output: auto, bar, log, json")
	uploadCmd.Flags().Bool("text", false, "print the recognized text of each document")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the service's upload limits and features",
		Args:  cobra.NoArgs,
		RunE:  h.Info,
	}

	validateCmd := &cobra.Command{
		Use:   "validate FILE [FILE...]",
		Short: "Check document(s) against the size and type limits without uploading",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Validate,
	}

	return []*cobra.Command{uploadCmd, infoCmd, validateCmd}
}
