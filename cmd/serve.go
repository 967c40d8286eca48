package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finlint/internal/analyzer"
	"finlint/internal/server"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scan API over HTTP",
	Long: `Starts an HTTP server with two endpoints:

  POST /scan    {"code": "...", "language": "python|javascript|java|auto"}
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, 127.0.0.1:5000)")
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	addr := cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	srv := server.New(server.NewService(analyzer.NewEngineFromConfig(cfg, logger), logger), cfg.Server.MaxBodyKB, logger)
	if err := srv.Start(addr); err != nil {
		return err
	}
	color.Cyan("🌐 finlint listening on http://%s\n", srv.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
