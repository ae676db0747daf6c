package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xstream/internal/config"
	"xstream/internal/mcp"
	"xstream/internal/model"
	"xstream/internal/skill"
	"xstream/internal/synthesis"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// stdout carries the MCP transport; logs must not touch it.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	log, err := logCfg.Build()
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

	server := mcp.NewServer(db, pipeline, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
