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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/recommend"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Server.Port = resolvePort(servePort, cfg.Server.Port)
		env, err := initPipeline(cfg, "serve", "")
		if err != nil {
			return err
		}

		handler := newRouter(env, cfg.Server.AllowedOrigins, cfg.Pipeline.TopN)
		return startServer(ctx, handler, cfg.Server.Port, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	},
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer serves h until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, h http.Handler, port int, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// recommendationRequest is the body of POST /v1/recommendations.
type recommendationRequest struct {
	Article model.ArticleContext `json:"article"`
	TopN    int                  `json:"top_n"`
	Debug   bool                 `json:"debug"`
	NoCache bool                 `json:"no_cache"`
}

func newRouter(env *pipelineEnv, origins []string, defaultTopN int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"circuits": env.Gateway.CircuitStates(),
		})
	})

	r.Post("/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		var req recommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		top := req.TopN
		if top <= 0 {
			top = defaultTopN
		}
		opts := []recommend.RequestOption{recommend.WithTopN(top), recommend.WithDebug(req.Debug)}
		if req.NoCache {
			opts = append(opts, recommend.WithoutCache())
		}

		res, err := env.Orchestrator.Recommend(r.Context(), req.Article, opts...)
		switch {
		case errors.Is(err, recommend.ErrEmptyArticle):
			respondError(w, http.StatusBadRequest, "article has no title, description or content")
			return
		case err != nil:
			zap.L().Warn("recommendation request failed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
			respondError(w, http.StatusServiceUnavailable, "recommendation unavailable")
			return
		}
		respondJSON(w, http.StatusOK, res)
	})

	r.Get("/v1/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		usage := env.Gateway.Usage()
		respondJSON(w, http.StatusOK, map[string]any{
			"caches":             env.Orchestrator.CacheStats(),
			"usage":              usage,
			"estimated_cost_usd": env.Gateway.EstimateCost(usage),
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(env.Registry, promhttp.HandlerOpts{}))
	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
