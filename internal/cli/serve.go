package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goNFTMarket/internal/di"
)

var listenAddr string

// serveCmd represents the serve command (default action)
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketplace node",
	Long: `Boot the world from genesis, or attach to persisted state, and serve:
- JSON-RPC read API on /
- Health check on /health

This is the default command when no subcommand is specified.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Set serve as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides server.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}

	c, err := di.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	logger, err := c.Logger()
	if err != nil {
		return err
	}
	w, err := c.World()
	if err != nil {
		return err
	}
	rpcServer, err := c.RPC()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprintf(rw, `{"status":"ok","marketplace":%q}`, w.MarketAddress.Hex())
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving json-rpc",
			zap.String("listen", cfg.Server.Listen),
			zap.String("marketplace", w.MarketAddress.Hex()),
			zap.Bool("fresh", w.Fresh),
			zap.Strings("methods", rpcServer.Methods()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
