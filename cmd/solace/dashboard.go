package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/solace/cmd/solace/runtime"

	"github.com/harunnryd/solace/internal/config"
	"github.com/harunnryd/solace/internal/dashboard"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the local JSON dashboard",
	Long:  `Serve identity, chains and reconciled views over HTTP until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			srv, err := dashboard.New(r.Config.Dashboard, dashboard.Deps{
				Identity: r.Store,
				Chains:   r.API,
				Viewer:   r.Reconciler,
			})
			if err != nil {
				return err
			}
			if err := srv.Start(r.Ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard running at http://%s\n", srv.Addr())

			<-r.Ctx.Done()
			return srv.Stop(context.Background())
		})
	},
}

func init() {
	dashboardCmd.Flags().String("dashboard.addr", config.DefaultDashboardAddr, "listen address")
	rootCmd.AddCommand(dashboardCmd)
}
