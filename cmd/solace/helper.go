package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/solace/cmd/solace/runtime"

	"github.com/harunnryd/solace/internal/config"

	"github.com/spf13/cobra"
)

func executeWithRuntime(cmd *cobra.Command, fn func(*runtime.Components) error) error {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sig := NewSignalHandler(context.Background())
	sig.Start()
	defer sig.Stop()

	components, err := runtime.NewBuilder().
		WithContext(sig.Context()).
		WithConfig(loadedCfg).
		Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}

	return fn(components)
}

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	return config.Load(cmd)
}
