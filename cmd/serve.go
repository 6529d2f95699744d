package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dynai/internal/apihandlers"
)

var (
	serveAddr string // Listen address
	servePort int    // Listen port
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run Dynai as an HTTP API server",
	Long: `Starts an HTTP server that holds one long-lived session and exposes every
session operation under /api/v1. Mutating requests save the session state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if !log.IsLevelEnabled(log.DebugLevel) {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Logger(), gin.Recovery())
		apihandlers.NewAPIHandler(appInstance).RegisterRoutes(router)

		host, port := appInstance.Config.Server.Host, appInstance.Config.Server.Port
		if cmd.Flags().Changed("addr") {
			host = serveAddr
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		listenAddr := fmt.Sprintf("%s:%d", host, port)

		srv := &http.Server{
			Addr:              listenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("Starting Dynai API server on http://%s", listenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to run API server: %w", err)
			}
			return nil
		case <-shutdown:
		case <-cmd.Context().Done():
		}

		log.Info("Shutdown signal received. Initiating graceful shutdown...")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("Dynai API server stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1", "Address to listen on (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides server.port)")
}
