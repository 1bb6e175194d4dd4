package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tally/pkg/render"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render invoice documents",
	}
	cmd.AddCommand(newRenderPDFCommand())
	cmd.AddCommand(newRenderCSVCommand())
	return cmd
}

func newRenderPDFCommand() *cobra.Command {
	var (
		profilePath string
		outPath     string
		uncompress  bool
	)

	cmd := &cobra.Command{
		Use:   "pdf <invoice-file>",
		Short: "Render an invoice as PDF",
		Long: `Render an invoice as PDF. Without --out the document is written to
Invoice-<Client>-<date>.pdf in the current directory; use --out - for stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := LoadInvoice(args[0])
			if err != nil {
				return err
			}

			var profile render.BusinessProfile
			if profilePath != "" {
				p, err := LoadProfile(profilePath)
				if err != nil {
					return fmt.Errorf("failed to load profile: %w", err)
				}
				if profile, err = p.BusinessProfile(); err != nil {
					return err
				}
			}
			if profile.Name == "" {
				profile.Name = inv.BusinessName
			}

			renderer := &render.PDFRenderer{Compress: !uncompress}
			pdf, err := renderer.Render(inv, profile)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = render.DocumentFilename(inv.ClientName, inv.IssueDate)
			}
			if err := writeOutput(cmd, outPath, pdf); err != nil {
				return err
			}
			if outPath != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outPath, len(pdf))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "business profile YAML file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, - for stdout")
	cmd.Flags().BoolVar(&uncompress, "uncompressed", false, "write uncompressed page streams")
	return cmd
}

func newRenderCSVCommand() *cobra.Command {
	var (
		outPath string
		row     bool
	)

	cmd := &cobra.Command{
		Use:   "csv <invoice-file>...",
		Short: "Render invoices as a CSV report",
		Long: `Render invoices as a CSV report with a header line. With --row a single
invoice is rendered as one record without a header.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if row && len(args) != 1 {
				return fmt.Errorf("--row takes exactly one invoice file, got %d", len(args))
			}

			list, err := LoadInvoices(args)
			if err != nil {
				return err
			}

			var out string
			if row {
				out, err = render.RenderInvoiceCSVRow(list[0])
			} else {
				out, err = render.RenderCSVReport(list)
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = "-"
			}
			return writeOutput(cmd, outPath, []byte(out+"\n"))
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, stdout when empty")
	cmd.Flags().BoolVar(&row, "row", false, "render a single record without the header")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
