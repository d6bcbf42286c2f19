package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/logging"
	"github.com/KaramelBytes/dashloom-cli/internal/query"
	"github.com/KaramelBytes/dashloom-cli/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveTimeout time.Duration
	serveWorkers int
	serveRPS     float64
	serveBurst   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the processing engine over HTTP",
	Long: `Starts the HTTP API:
  POST /v1/process          {rows, elements} -> {results}
  POST /v1/forecast/stitch  {chart, forecast} -> {data}
  POST /v1/export/csv       {rows, columns?, filename?} -> text/csv
  GET  /healthz, GET /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" && cfg != nil {
			addr = cfg.ServerAddr
		}
		if addr == "" {
			addr = ":8080"
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var procOpts []engine.Option
		workers := serveWorkers
		if workers <= 0 && cfg != nil {
			workers = cfg.Workers
		}
		procOpts = append(procOpts, engine.WithWorkers(workers))
		if cfg != nil && cfg.QueryDSN != "" {
			pg, err := query.OpenPostgres(ctx, cfg.QueryDSN, 30*time.Second, logger)
			if err != nil {
				return fmt.Errorf("query executor: %w", err)
			}
			defer pg.Close()
			procOpts = append(procOpts, engine.WithExecutor(pg))
		}

		// The server always logs requests, independent of the CLI's quiet default.
		level, format := "info", ""
		if cfg != nil {
			if cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
			format = cfg.LogFormat
		}
		if debug {
			level = "debug"
		}
		srvLogger := logging.New(os.Stderr, logging.Options{Level: level, Format: format, AddSource: debug})

		s := server.New(server.NewMetrics(), procOpts,
			server.WithLogger(srvLogger),
			server.WithTimeout(serveTimeout),
			server.WithRateLimit(serveRPS, serveBurst),
		)
		fmt.Printf("✓ Serving on %s (Ctrl+C to stop)\n", addr)
		return s.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 60*time.Second, "per-request timeout")
	serveCmd.Flags().Float64Var(&serveRPS, "rate", 0, "max /v1 requests per second (0 disables)")
	serveCmd.Flags().IntVar(&serveBurst, "burst", 10, "burst size for --rate")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "elements processed concurrently per request")
}
