package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func orgsCmd(build DepsFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgs",
		Short: "Org lifecycle tooling",
	}
	cmd.AddCommand(orgsActivateCmd(build))
	return cmd
}

func orgsActivateCmd(build DepsFactory) *cobra.Command {
	var (
		ownerID    string
		ownerEmail string
	)
	cmd := &cobra.Command{
		Use:   "activate <org-id>",
		Short: "Finish provisioning an org stuck as provisional",
		Long: `Applies the tenant migrations still pending on the org's namespace and then
activates the org. Use it after a provisioning run failed during migration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ownerID == "" {
				return fmt.Errorf("--owner-id is required")
			}
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				if err := deps.Runner.Init(ctx); err != nil {
					return err
				}
				org, err := deps.Provisioner.ResumeProvisioning(ctx, args[0], ownerID, ownerEmail)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", org.Name, org.SchemaName, org.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner-id", "", "owner user id")
	cmd.Flags().StringVar(&ownerEmail, "owner-email", "", "owner email")
	return cmd
}
