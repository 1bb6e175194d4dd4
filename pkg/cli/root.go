package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version reported by `tallyctl version`
func SetVersion(v string) {
	version = v
}

// NewRootCommand builds the tallyctl command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tallyctl",
		Short: "Work with tally invoice files offline",
		Long: `tallyctl totals, renders and checks invoices stored as JSON or YAML files.

It uses the same arithmetic, document layout and plan rules as the tally API.`,
		SilenceUsage: true,
	}

	root.AddCommand(newTotalCommand())
	root.AddCommand(newRenderCommand())
	root.AddCommand(newGateCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tallyctl %s\n", version)
		},
	}
}

// Execute runs the root command against os.Args
func Execute() error {
	return NewRootCommand().Execute()
}
