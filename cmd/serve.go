package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jdoseph/rateyourcourt-sub000/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline daemon: scheduler, worker pool, and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Single instance per host: overlapping daemons would double-run
		// discovery jobs against the same store.
		lock := flock.New(cfg.Server.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return eris.Wrap(err, "acquire instance lock")
		}
		if !locked {
			return eris.Errorf("another instance holds %s", cfg.Server.LockPath)
		}
		defer lock.Unlock() //nolint:errcheck

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		env.manager.Start(ctx)
		defer env.manager.Stop()

		// Periodic history pruning.
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					env.manager.Prune(ctx)
				}
			}
		}()

		srv := server.New(env.manager, env.verify, env.courts, env.runner)
		srv.AllowedOrigins = cfg.Server.AllowedOrigins

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
