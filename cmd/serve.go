package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/translate"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline entry points over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/v1/runs", handleRun)
		r.Post("/v1/nlruns", handleNLRun)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve")
		}
		return nil
	},
}

type runRequest struct {
	Query           model.Query `json:"query"`
	Verify          bool        `json:"verify"`
	Push            bool        `json:"push"`
	RequireVerified bool        `json:"require_verified"`
}

func handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	runAndRespond(r.Context(), w, req.Query, pipeline.Options{
		Verify:               req.Verify,
		Push:                 req.Push,
		PushRequiresVerified: req.RequireVerified || cfg.Pipeline.PushRequiresVerify,
	})
}

type nlRunRequest struct {
	Text            string `json:"text"`
	MaxRecords      int    `json:"max_records"`
	Verify          bool   `json:"verify"`
	Push            bool   `json:"push"`
	RequireVerified bool   `json:"require_verified"`
}

func handleNLRun(w http.ResponseWriter, r *http.Request) {
	var req nlRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if cfg.Anthropic.Key == "" {
		writeError(w, http.StatusBadRequest, "anthropic API key not configured")
		return
	}

	translator := translate.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	query, err := translator.Translate(r.Context(), req.Text, req.MaxRecords)
	if err != nil {
		writeError(w, http.StatusBadGateway, "query translation failed: "+err.Error())
		return
	}

	runAndRespond(r.Context(), w, query, pipeline.Options{
		Verify:               req.Verify,
		Push:                 req.Push,
		PushRequiresVerified: req.RequireVerified || cfg.Pipeline.PushRequiresVerify,
	})
}

func runAndRespond(ctx context.Context, w http.ResponseWriter, query model.Query, opts pipeline.Options) {
	p, err := newPipeline(opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := p.Run(ctx, query, opts)
	if err != nil {
		if pipeline.IsSearchFailed(err) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
