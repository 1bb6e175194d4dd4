package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tally/pkg/invoice"
)

func newTotalCommand() *cobra.Command {
	var formatted bool

	cmd := &cobra.Command{
		Use:   "total <invoice-file>...",
		Short: "Print the total of each invoice",
		Long: `Print the total of each invoice, rounded to the minor units of its currency.

With more than one file each line is prefixed with the file name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				inv, err := LoadInvoice(path)
				if err != nil {
					return err
				}

				code := inv.CurrencyOrDefault()
				total, err := invoice.ComputeTotal(inv.Items, code)
				if err != nil {
					return err
				}

				value := total.StringFixed(invoice.Scale(code)) + " " + code
				if formatted {
					value = invoice.FormatMoney(total, code)
				}
				if len(args) > 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, value)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), value)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&formatted, "format", false, "print the total with its currency symbol")
	return cmd
}
