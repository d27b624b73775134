package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-group-guard/internal/usecase"
)

// Server is the operator-facing HTTP surface: health, metrics and a small
// JSON API over the same usecases the Telegram admin panel drives.
type Server struct {
	groupUC     usecase.GroupUseCase
	settingsUC  usecase.SettingsUseCase
	statsUC     usecase.StatsUseCase
	broadcastUC usecase.BroadcastUseCase

	auth         *AuthManager
	apiKey       string
	superAdminID int64
	log          *zerolog.Logger
}

func NewServer(
	groupUC usecase.GroupUseCase,
	settingsUC usecase.SettingsUseCase,
	statsUC usecase.StatsUseCase,
	broadcastUC usecase.BroadcastUseCase,
	auth *AuthManager,
	apiKey string,
	superAdminID int64,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		groupUC:      groupUC,
		settingsUC:   settingsUC,
		statsUC:      statsUC,
		broadcastUC:  broadcastUC,
		auth:         auth,
		apiKey:       apiKey,
		superAdminID: superAdminID,
		log:          logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/login", s.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/stats", s.handleGlobalStats)
		r.Get("/groups", s.handleListGroups)
		r.Get("/groups/{id}/stats", s.handleGroupStats)
		r.Post("/groups/{id}/settings", s.handleUpdateSettings)
		r.Post("/broadcast", s.handleBroadcast)
	})

	return r
}

// authMiddleware accepts either the static API key or a minted session token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if hdr := r.Header.Get("Authorization"); hdr != "" {
			parts := strings.SplitN(hdr, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == s.apiKey {
				next.ServeHTTP(w, r)
				return
			}
		}
		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
