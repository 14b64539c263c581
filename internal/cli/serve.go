package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve checks and predictions over HTTP",
	Long: `Serve starts a JSON API:
  GET /health
  GET /api/v1/check?topic=...&country=...
  GET /api/v1/predict?topic_count=...&country_count=...[&small=true]
  GET /api/v1/model
  GET /api/v1/examples
  GET /api/v1/history[?limit=N]
  GET /api/v1/history/{id}

Example:
  realitycheck serve
  realitycheck serve --addr 127.0.0.1:9090 --mailto ops@example.org`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	addLookupFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLookupFlags(cmd, cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	opts := []server.Option{server.WithVersion(Version)}
	if rt.history != nil {
		opts = append(opts, server.WithHistory(rt.history))
	}

	logger := server.NewLogger(os.Stderr, cfg.Output.Verbose)
	srv := server.New(cfg.Server, rt.pipeline, rt.pipeline.Scorer(), logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
