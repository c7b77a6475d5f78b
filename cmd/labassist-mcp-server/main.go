// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "version"
var commit = "commit"
var date = "date"

var (
	rootCmd = &cobra.Command{
		Use:     "labassist-mcp-server",
		Short:   "Lab Assist MCP Server",
		Long:    `An MCP server exposing the internal hub people search and project cost endpoints as tools.`,
		Version: fmt.Sprintf("Version: %s\nCommit: %s\nBuild Date: %s", version, commit, date),
	}

	stdioCmd = &cobra.Command{
		Use:   "stdio",
		Short: "Start stdio server",
		Long:  `Start a server that communicates via standard input/output streams using JSON-RPC messages.`,
		Run: func(_ *cobra.Command, _ []string) {
			logger := mustInitLogger()

			cfg, err := loadRunConfig()
			if err != nil {
				logger.Fatalf("invalid configuration: %v", err)
			}

			if err := runStdioServer(cfg, logger); err != nil {
				stdlog.Fatal("failed to run stdio server:", err)
			}
		},
	}

	sseCmd = &cobra.Command{
		Use:   "sse",
		Short: "Start SSE server",
		Long:  `Start a server that communicates over HTTP using server-sent events, with origin validation.`,
		Run: func(_ *cobra.Command, _ []string) {
			logger := mustInitLogger()

			cfg, err := loadRunConfig()
			if err != nil {
				logger.Fatalf("invalid configuration: %v", err)
			}

			host := viper.GetString("transport_host")
			port := viper.GetString("transport_port")

			if err := runSSEServer(cfg, host, port, logger); err != nil {
				stdlog.Fatal("failed to run sse server:", err)
			}
		},
	}
)

func mustInitLogger() *log.Logger {
	logger, err := initLogger(viper.GetString("log_file"), viper.GetString("log_level"))
	if err != nil {
		stdlog.Fatal("Failed to initialize logger:", err)
	}
	return logger
}

func runStdioServer(cfg runConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lbServer := NewServer(version)
	if err := toolsInit(lbServer, cfg, logger); err != nil {
		return err
	}

	return serverInit(ctx, lbServer, logger)
}

func runSSEServer(cfg runConfig, host, port string, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lbServer := NewServer(version)
	if err := toolsInit(lbServer, cfg, logger); err != nil {
		return err
	}

	return sseServerInit(ctx, lbServer, host, port, logger)
}

func NewServer(version string, opts ...server.ServerOption) *server.MCPServer {
	// Add default options
	defaultOpts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	}
	opts = append(defaultOpts, opts...)

	// Create a new MCP server
	s := server.NewMCPServer(
		"labassist-mcp-server",
		version,
		opts...,
	)
	return s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
