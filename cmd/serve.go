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

	"github.com/spf13/cobra"

	"github.com/accidentalproductions/tetristats/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TETRISTATS_HTTP_ADDR)")
	serveCmd.Flags().Bool("quiet", false, "Disable request logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	att, err := openAttacher(cmd, e)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	srv := api.New(api.Options{
		Scores:      e.store.ScoreRepo(),
		Estimator:   e.est,
		Media:       att,
		Samples:     e.store.SampleRepo(),
		Baseline:    e.cfg.BaselineGame(),
		CORSOrigins: e.cfg.HTTP.CORSOrigins,
		Timeout:     e.cfg.HTTP.WriteTimeout,
		RequestLog:  !quiet,
	})

	addr := e.cfg.HTTP.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadTimeout:       e.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: e.cfg.HTTP.ReadTimeout,
		WriteTimeout:      e.cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
