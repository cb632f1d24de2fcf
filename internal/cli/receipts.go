package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func receiptsCmd(build DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Receipt tooling",
	}
	cmd.AddCommand(receiptsExportCmd(build))
	return cmd
}

func receiptsExportCmd(build DepsFactory) *cobra.Command {
	var (
		orgID     string
		subdomain string
		year      int
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one org's yearly receipt register as XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" && subdomain == "" {
				return fmt.Errorf("--org or --subdomain is required")
			}
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				org, err := deps.Orgs.Resolve(ctx, orgID, subdomain)
				if err != nil {
					return err
				}
				data, err := deps.Receipts.ExportRegister(ctx, org, year)
				if err != nil {
					return err
				}
				path := outPath
				if path == "" {
					path = fmt.Sprintf("receipts_%s_%d.xlsx", org.Subdomain, year)
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "org id")
	cmd.Flags().StringVar(&subdomain, "subdomain", "", "org subdomain")
	cmd.Flags().IntVar(&year, "year", time.Now().UTC().Year(), "receipt year")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default receipts_<subdomain>_<year>.xlsx)")
	return cmd
}
