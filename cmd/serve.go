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
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vilaweb/leadgen-cli/internal/leadgen"
	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the admin UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		svc := initService(st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(svc, cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(svc *leadgen.Service, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", handleGenerate(svc))
		r.Post("/leads/accept", handleAccept(svc))
		r.Get("/runs", handleRuns(svc))
		r.Post("/runs/{id}/repeat", handleRepeat(svc))
		r.Get("/performance/weekly", handleWeekly(svc))
	})

	return r
}

type generateRequest struct {
	Criteria   model.GenerationCriteria `json:"criteria"`
	Model      string                   `json:"model,omitempty"`
	OperatorID string                   `json:"operator_id"`
}

func handleGenerate(svc *leadgen.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Criteria.Sector == "" || req.Criteria.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "sector and a positive quantity are required")
			return
		}

		result, err := svc.Generate(r.Context(), req.Criteria, req.Model, req.OperatorID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

type acceptRequest struct {
	GenerationID string                `json:"generation_id"`
	Candidates   []model.CandidateLead `json:"candidates"`
	OperatorID   string                `json:"operator_id"`
}

func handleAccept(svc *leadgen.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req acceptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.GenerationID == "" || len(req.Candidates) == 0 {
			respondError(w, http.StatusBadRequest, "generation_id and candidates are required")
			return
		}

		result, err := svc.PersistAccepted(r.Context(), req.GenerationID, req.Candidates, req.OperatorID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleRuns(svc *leadgen.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			fmt.Sscanf(raw, "%d", &limit) //nolint:errcheck
		}
		runs, err := svc.History(r.Context(), r.URL.Query().Get("operator_id"), limit)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
	}
}

func handleRepeat(svc *leadgen.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OperatorID string `json:"operator_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Repeat(r.Context(), chi.URLParam(r, "id"), req.OperatorID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleWeekly(svc *leadgen.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buckets, err := svc.WeeklyPerformance(r.Context(), r.URL.Query().Get("operator_id"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"weeks": buckets})
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leadgen.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "operator not permitted")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		zap.L().Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
