package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tally/pkg/plan"
)

func newGateCommand() *cobra.Command {
	var (
		isPro bool
		count int
	)

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Check whether an account may create another invoice",
		Long: `Check whether an account on the given plan holding --count invoices may
create another one. Prints "allowed" or the upgrade message, and exits
non-zero when the invoice would be refused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := plan.CheckInvoiceQuota(isPro, count); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), plan.UpgradeMessage)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&isPro, "pro", false, "the account is on the Pro plan")
	cmd.Flags().IntVar(&count, "count", 0, "number of invoices the account already holds")
	return cmd
}
