package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/handlers"
	"github.com/quangduy772005-oss/BKT2-FullStack/metrics"
	"github.com/quangduy772005-oss/BKT2-FullStack/middleware"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type Config struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer       prometheus.Gatherer
}

func SetupRoutes(
	router chi.Router,
	cfg Config,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	memberHandler *handlers.MemberHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.Logger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	authenticate := middleware.Authenticate(cfg.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		// public reads
		r.Get("/tournaments", tournamentHandler.ListHandler)
		r.Get("/tournaments/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/tournaments/{tournamentID}/participants", tournamentHandler.ListParticipantsHandler)
		r.Get("/tournaments/{tournamentID}/bracket", leaderboardHandler.BracketHandler)
		r.Get("/tournaments/{tournamentID}/matches", leaderboardHandler.MatchesHandler)
		r.Get("/tournaments/{tournamentID}/leaderboard", leaderboardHandler.TournamentLeaderboardHandler)
		r.Get("/tournaments/{tournamentID}/standings", leaderboardHandler.StandingsHandler)
		r.Get("/matches/{matchID}", matchHandler.GetByIDHandler)
		r.Get("/members/{memberID}", memberHandler.GetByIDHandler)
		r.Get("/members/{memberID}/stats", leaderboardHandler.MemberStatsHandler)
		r.Get("/members/{memberID}/history", leaderboardHandler.RatingHistoryHandler)
		r.Get("/leaderboard", leaderboardHandler.GlobalLeaderboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleMember, models.RoleReferee, models.RoleAdmin))

			r.Post("/tournaments/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Post("/tournaments/{tournamentID}/withdraw", tournamentHandler.WithdrawHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleReferee, models.RoleAdmin))

			r.Post("/matches", matchHandler.CreateHandler)
			r.Post("/matches/{matchID}/result", matchHandler.RecordResultHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/tournaments", tournamentHandler.CreateHandler)
			r.Delete("/tournaments/{tournamentID}", tournamentHandler.DeactivateHandler)
			r.Post("/tournaments/{tournamentID}/participants/{participantID}/paid", tournamentHandler.MarkPaidHandler)
			r.Post("/tournaments/{tournamentID}/start", tournamentHandler.StartHandler)
			r.Post("/tournaments/{tournamentID}/end", tournamentHandler.EndHandler)
			r.Post("/tournaments/{tournamentID}/cancel", tournamentHandler.CancelHandler)
			r.Post("/tournaments/{tournamentID}/bracket", tournamentHandler.BuildBracketHandler)
			r.Delete("/tournaments/{tournamentID}/bracket", tournamentHandler.DiscardBracketHandler)
			r.Post("/members", memberHandler.CreateHandler)
		})
	})
}
