package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"labassist-mcp-server/pkg/apicall"
	"labassist-mcp-server/pkg/labassist"
	"labassist-mcp-server/pkg/labassist/cost"
	"labassist-mcp-server/pkg/labassist/hub"
	"labassist-mcp-server/pkg/progress"
)

var (
	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Run a single people search",
		Long:  `Query the people index once and print the result as JSON. Progress messages go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, _ := cmd.Flags().GetString("query")
			if strings.TrimSpace(query) == "" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"error": "No query provided."})
			}

			logger := mustInitLogger()
			cfg, err := loadRunConfig()
			if err != nil {
				return err
			}

			return runOneShot(cmd, cfg, logger, func(ctx context.Context, adapter *labassist.Adapter, sink progress.Sink) (apicall.Result, error) {
				return adapter.Invoke(ctx, cfg.hubEndpoints.PeopleSearch, hub.BuildQueryParams(query), sink)
			})
		},
	}

	costsCmd = &cobra.Command{
		Use:   "costs",
		Short: "Run a single cost lookup",
		Long:  `Look up project costs once and print the result as JSON. Progress messages go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fiscalYear, _ := cmd.Flags().GetString("fiscal-year")
			hanfordID, _ := cmd.Flags().GetInt64("hanford-id")
			projectNumber, _ := cmd.Flags().GetInt64("project-number")

			q := cost.Query{FiscalYear: fiscalYear, HanfordID: hanfordID, ProjectNumber: projectNumber}
			if err := q.Validate(); err != nil {
				return err
			}

			logger := mustInitLogger()
			cfg, err := loadRunConfig()
			if err != nil {
				return err
			}

			return runOneShot(cmd, cfg, logger, func(ctx context.Context, adapter *labassist.Adapter, sink progress.Sink) (apicall.Result, error) {
				return cost.Search(ctx, adapter, cfg.costEndpoint, q, sink)
			})
		},
	}
)

type oneShotFunc func(ctx context.Context, adapter *labassist.Adapter, sink progress.Sink) (apicall.Result, error)

// runOneShot invokes fn once and prints its result. Endpoint failures are
// printed like successes; only a failed token exchange returns an error.
func runOneShot(cmd *cobra.Command, cfg runConfig, logger *log.Logger, fn oneShotFunc) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, err := newAdapter(cfg, logger)
	if err != nil {
		return err
	}

	result, err := fn(ctx, adapter, stderrSink(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), result)
}

func stderrSink(w io.Writer) progress.Sink {
	return progress.SinkFunc(func(_ context.Context, n progress.Notification) {
		_, _ = fmt.Fprint(w, n.Content)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
