package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/pyscan/internal/mcpserver"
	"github.com/panbanda/pyscan/internal/observability"
	"github.com/panbanda/pyscan/internal/service/analysis"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes pyscan's analysis
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "pyscan": {
        "command": "pyscan",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_python   Issues, file metrics and function metrics
  - list_issues      Rule violations, optionally filtered by category
  - file_metrics     Size and complexity metrics only`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
			},
		},
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry server.json",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(newLogger(c)),
	}
	if addr := c.String("metrics-addr"); addr != "" {
		m := observability.New()
		opts = append(opts, analysis.WithMetrics(m))
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				newLogger(c).Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
	}

	server := mcpserver.NewServer(version, analysis.New(opts...))
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
