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
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/claimsight/denials-cli/internal/engine"
	"github.com/claimsight/denials-cli/internal/model"
	"github.com/claimsight/denials-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := engine.OptionsFromConfig(cfg.Engine, cfg.Payers)
		if err != nil {
			return err
		}
		eng, err := engine.New(opts)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		if st != nil {
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(rateLimit(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Records []model.RawClaim `json:"records"`
				Source  string           `json:"source"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}

			result, err := eng.Analyze(req.Context(), body.Records)
			if err != nil {
				status := http.StatusInternalServerError
				var cfgErr *engine.ConfigError
				if errors.As(err, &cfgErr) {
					status = http.StatusBadRequest
				}
				writeJSON(w, status, map[string]string{"error": err.Error()})
				return
			}
			result.RunID = uuid.New().String()

			if st != nil {
				run := &model.Run{
					ID:        result.RunID,
					Source:    body.Source,
					Status:    model.RunStatusComplete,
					Params:    result.Params,
					Result:    result,
					CreatedAt: time.Now().UTC(),
				}
				if err := st.SaveRun(req.Context(), run); err != nil {
					zap.L().Warn("run not persisted", zap.String("run_id", run.ID), zap.Error(err))
				}
			}

			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "persistence disabled"})
				return
			}
			runs, err := st.ListRuns(req.Context(), store.RunFilter{
				Status: model.RunStatus(req.URL.Query().Get("status")),
				Source: req.URL.Query().Get("source"),
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			if runs == nil {
				runs = []model.Run{}
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "persistence disabled"})
				return
			}
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
					return
				}
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go shutdownOnDone(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownOnDone waits for ctx cancellation and drains in-flight requests.
// Shutdown gets a fresh timeout context; the signal context is already
// cancelled when it fires, which would abort the drain immediately.
func shutdownOnDone(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

// rateLimit rejects requests beyond the configured sustained rate with 429.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
