package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmadforge/runtime/internal/client"
	"github.com/bmadforge/runtime/internal/config"
	"github.com/bmadforge/runtime/internal/httpapi"
	"github.com/bmadforge/runtime/internal/logging"
)

var (
	servePort int
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bmadrun HTTP API server",
	Long: `Serve starts bmadrun as a headless server exposing sessions over an
HTTP API: create a session, poll its status, and answer ask_user questions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	c, err := client.FromConfig(ctx, cfg, dir)
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}

	serverCfg := httpapi.DefaultConfig()
	serverCfg.Port = servePort

	srv := httpapi.New(serverCfg, c)

	go func() {
		logging.Info().
			Int("port", servePort).
			Str("url", fmt.Sprintf("http://localhost:%d", servePort)).
			Msg("bmadrun server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
