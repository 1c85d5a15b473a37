package main

import (
	"errors"
	"fmt"

	"github.com/harunnryd/solace/cmd/solace/runtime"

	"github.com/harunnryd/solace/internal/chain"
	solaceErrors "github.com/harunnryd/solace/internal/errors"

	"github.com/spf13/cobra"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List your support chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			if err := r.RequireLogin(); err != nil {
				return err
			}

			chains, err := r.API.ListChains(r.Ctx)
			if err != nil {
				return errors.New(solaceErrors.UserMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Renderer.Chains(chain.SortChainsByCreation(chains)))
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [chain-or-chat-id]",
	Short: "Print a transcript",
	Long:  `Print the merged transcript of a chain or chat. Without an id, every chain is shown oldest first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			if err := r.RequireLogin(); err != nil {
				return err
			}

			target := chain.NoTarget()
			if len(args) == 1 {
				target = chain.ParseTarget(args[0])
			}

			view := r.Reconciler.Reconcile(r.Ctx, target)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Renderer.Transcript(view.Messages))
			fmt.Fprintln(out, r.Renderer.Banner(view))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chainsCmd)
	rootCmd.AddCommand(historyCmd)
}
