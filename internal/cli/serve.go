package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/sbx/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <path>",
		Short: "serve the cards under path over a local HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Addr
			}
			root := absPath(args[0])
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return fmt.Errorf("%q is not a directory", root)
			}

			svc, journal, closeJournal := a.reviewService()
			defer closeJournal()

			srv := &api.Server{
				Root:      root,
				Reviews:   svc,
				Now:       a.now,
				StatsDays: a.cfg.StatsDays,
			}
			if journal != nil {
				srv.Journal = journal
			}

			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("HTTP server listening on %s, serving %s", addr, root)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(stop)

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("HTTP server error: %w", err)
				}
				return nil
			case sig := <-stop:
				a.log.Info("received signal %v, shutting down", sig)
			case <-cmd.Context().Done():
				a.log.Info("context cancelled, shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				a.log.Error("HTTP server shutdown error: %v", err)
				return err
			}
			a.log.Info("HTTP server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $SBX_ADDR)")
	return cmd
}
