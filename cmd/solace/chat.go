package main

import (
	"github.com/harunnryd/solace/cmd/solace/runtime"

	"github.com/harunnryd/solace/internal/chain"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [chain-or-chat-id]",
	Short: "Open an interactive chat",
	Long:  `Open a chat on a chain or chat id. Without an id the last active chat is resumed, or every chain is shown when there is none.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			if err := r.RequireLogin(); err != nil {
				return err
			}

			repl := runtime.NewREPL(r, resolveChatTarget(args, r.Store.Chat().ActiveChatID), cmd.InOrStdin(), cmd.OutOrStdout())
			return repl.Start()
		})
	},
}

// resolveChatTarget prefers an explicit id, then the persisted active chat.
func resolveChatTarget(args []string, lastChatID string) chain.Target {
	if len(args) == 1 {
		if t := chain.ParseTarget(args[0]); !t.IsZero() {
			return t
		}
	}
	if lastChatID != "" {
		return chain.ChatTarget(lastChatID)
	}
	return chain.NoTarget()
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
