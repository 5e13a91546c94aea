package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fixtura/livescore-system/handlers"
	"github.com/fixtura/livescore-system/services"
)

func SetupRoutes(
	router *chi.Mux,
	corsOrigins []string,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	standingsHandler *handlers.StandingsHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.LoginHandler)

	// Viewer surface: read-only, no auth.
	router.Get("/tournaments", tournamentHandler.ListTournamentsHandler)
	router.Get("/tournaments/{tournamentID}", tournamentHandler.GetTournamentHandler)
	router.Get("/tournaments/{tournamentID}/phases", tournamentHandler.ListPhasesHandler)
	router.Get("/phases/{phaseID}/matches", matchHandler.ListPhaseMatchesHandler)
	router.Get("/phases/{phaseID}/standings", standingsHandler.PhaseStandingsHandler)
	router.Get("/groups/{groupID}/standings", standingsHandler.GroupStandingsHandler)
	router.Get("/matches/{matchID}", matchHandler.GetMatchHandler)
	router.Get("/live", matchHandler.ListLiveMatchesHandler)
	router.Get("/teams", teamHandler.ListTeamsHandler)

	// Invalidation-signal subscriptions.
	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeMatch)
	router.Get("/ws/phases/{phaseID}", webSocketHandler.ServePhase)
	router.Get("/ws/groups/{groupID}", webSocketHandler.ServeGroup)
	router.Get("/ws/live", webSocketHandler.ServeLiveList)

	// Admin surface: live match mutations.
	router.Group(func(r chi.Router) {
		r.Use(handlers.RequireAdmin(authService))

		r.Post("/matches/{matchID}/start", matchHandler.StartMatchHandler)
		r.Post("/matches/{matchID}/score", matchHandler.AdjustScoreHandler)
		r.Post("/matches/{matchID}/finish", matchHandler.FinishMatchHandler)
		r.Post("/matches/{matchID}/cancel", matchHandler.CancelMatchHandler)
		r.Put("/teams/{teamID}/crest", teamHandler.UploadCrestHandler)
	})
}
