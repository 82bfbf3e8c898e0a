package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/aggregate"
	"github.com/blegdams/journal-cli/internal/valstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve accuracy stats and report artifacts over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port, _ := cmd.Flags().GetInt("port")
		logsDir, _ := cmd.Flags().GetString("logs")
		reportsDir, _ := cmd.Flags().GetString("reports")
		if port == 0 {
			port = cfg.Server.Port
		}
		if logsDir == "" {
			logsDir = cfg.Store.Dir
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/api/stats", statsHandler(logsDir))
		r.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(reportsDir))))

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("server listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		}
	},
}

// statsHandler aggregates the validation logs on every request so the
// numbers always reflect the latest sessions on disk.
func statsHandler(logsDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minN := 1
		if s := r.URL.Query().Get("min_n"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "min_n must be a positive integer", http.StatusBadRequest)
				return
			}
			minN = n
		}
		dedupe := r.URL.Query().Get("dedupe") == "true"

		logs, err := valstore.CollectLogs(logsDir)
		if err != nil {
			zap.L().Error("collect logs", zap.Error(err))
			http.Error(w, "could not read validation logs", http.StatusInternalServerError)
			return
		}

		res, err := aggregate.Aggregate(logs, aggregate.Options{
			MinN:          minN,
			DedupeRepeats: dedupe,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			zap.L().Error("encode stats", zap.Error(err))
		}
	}
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (defaults to server.port)")
	serveCmd.Flags().String("logs", "", "validation logs directory (defaults to the store dir)")
	serveCmd.Flags().String("reports", "report", "report artifacts directory served at /reports/")
	rootCmd.AddCommand(serveCmd)
}
