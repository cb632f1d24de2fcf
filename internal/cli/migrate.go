package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func sharedCmd(build DepsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "shared",
		Short: "Apply pending shared migrations to the public namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				if err := deps.Runner.Init(ctx); err != nil {
					return err
				}
				n, err := deps.Runner.ApplyShared(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "shared: %d migration(s) applied\n", n)
				return nil
			})
		},
	}
}

func tenantsCmd(build DepsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "tenants",
		Short: "Apply pending tenant migrations to every org namespace",
		Long: `Migrates every non-deleted org in turn. A failing org does not stop the others;
the command exits non-zero when any org failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				if err := deps.Runner.Init(ctx); err != nil {
					return err
				}
				outcomes, err := deps.Runner.ApplyToAllTenants(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				failed := 0
				for _, o := range outcomes {
					if o.Err != nil {
						failed++
						fmt.Fprintf(out, "FAIL %s: %v\n", o.Namespace, o.Err)
						continue
					}
					fmt.Fprintf(out, "ok   %s: %d migration(s) applied\n", o.Namespace, o.Applied)
				}
				fmt.Fprintf(out, "%d org(s), %d failed\n", len(outcomes), failed)
				if failed > 0 {
					return fmt.Errorf("%d of %d org namespaces failed to migrate", failed, len(outcomes))
				}
				return nil
			})
		},
	}
}

func tenantCmd(build DepsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "tenant <namespace>",
		Short: "Apply pending tenant migrations to one org namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				if err := deps.Runner.Init(ctx); err != nil {
					return err
				}
				n, err := deps.Runner.ApplyAllPending(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d migration(s) applied\n", args[0], n)
				return nil
			})
		},
	}
}

func statusCmd(build DepsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List tenant migrations and each org's current/latest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, build, func(ctx context.Context, deps *Deps) error {
				report, err := deps.Runner.StatusReport(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Tenant migrations:")
				for _, u := range report.Catalog {
					fmt.Fprintf(out, "  %d. %s\n", u.Version, u.Name)
				}
				fmt.Fprintln(out, "Orgs:")
				for _, s := range report.Orgs {
					line := fmt.Sprintf("  %s (%s): %d/%d", s.OrgName, s.Namespace, s.CurrentVersion, s.LatestVersion)
					if s.Pending > 0 {
						line += fmt.Sprintf(", %d pending", s.Pending)
					}
					if len(s.Unapplied) > 0 {
						line += fmt.Sprintf(", missing %v", s.Unapplied)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}
