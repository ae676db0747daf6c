package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xstream/internal/config"
	"xstream/internal/model"
	"xstream/internal/skill"
	"xstream/internal/synthesis"
)

func synthesizeCmd() *cobra.Command {
	var informational bool

	cmd := &cobra.Command{
		Use:   "synthesize <liquid-id>",
		Short: "Run the synthesis pipeline on a committed submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynthesize(args[0], informational)
		},
	}
	cmd.Flags().BoolVar(&informational, "informational", false, "return the narrative without storing it")
	return cmd
}

func runSynthesize(liquidID string, informational bool) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	invoker := model.NewClient(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.ThinkingBudget)
	resolver := skill.NewResolver(db, log)
	pipeline := synthesis.NewPipeline(db, resolver, invoker, log)

	outcome, err := pipeline.Run(ctx, liquidID, informational)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	return nil
}
