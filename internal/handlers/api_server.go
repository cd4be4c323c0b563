// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/mau/internal/middleware"
)

// NewRouter wires every route of the Mau API.
func NewRouter(gs *GameServer, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(gs.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(chimw.StripSlashes)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/users", func(r chi.Router) {
		r.Post("/login", LoginHandler(gs))
		r.Post("/", RegisterHandler(gs))
		r.Get("/{username}", UserByNameHandler(gs))

		r.Group(func(r chi.Router) {
			r.Use(gs.RequireAuth)
			r.Get("/me", MeHandler(gs))
			r.Get("/me/challenges", ChallengesHandler(gs))
			r.Put("/", UpdateProfileHandler(gs))
			r.Post("/change-password", ChangePasswordHandler(gs))
		})
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", ListRoomsHandler(gs))
		r.Get("/random", RandomRoomHandler(gs))
		r.Get("/{id}", GetRoomHandler(gs))
		r.Get("/{id}/modes", GetRulesHandler(gs))

		r.Group(func(r chi.Router) {
			r.Use(gs.RequireAuth)
			r.Get("/active", ActiveRoomHandler(gs))
			r.Post("/", CreateRoomHandler(gs))
			r.Put("/{id}", UpdateRoomHandler(gs))
			r.Post("/{id}/join", JoinRoomHandler(gs))
			r.Post("/{id}/leave", LeaveRoomHandler(gs))
			r.Post("/{id}/kick/{user}", KickHandler(gs))
			r.Post("/{id}/owner/{user}", TransferOwnerHandler(gs))
			r.Put("/{id}/modes", UpdateRulesHandler(gs))
		})
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Get("/{category}", LeaderboardHandler(gs))
		r.Get("/{username}/{category}", RankHandler(gs))
	})

	r.Route("/game", func(r chi.Router) {
		// The stream authenticates itself so browsers can pass the token as a query parameter.
		r.Get("/ws", GameWSHandler(gs))

		r.Group(func(r chi.Router) {
			r.Use(gs.RequireAuth)
			r.Get("/", GameHandler(gs, nil))
			r.Post("/join", GameHandler(gs, joinGame))
			r.Post("/leave", GameHandler(gs, leaveGame))
			r.Post("/start", StartGameHandler(gs))
			r.Post("/end", GameHandler(gs, endGame))
			r.Post("/kick/{player}", GameHandler(gs, kickPlayer))
			r.Post("/skip", GameHandler(gs, skipTurn(gs)))
			r.Post("/next", GameHandler(gs, nextTurn))
			r.Post("/take", GameHandler(gs, takeCards))
			r.Post("/shotgun/take", GameHandler(gs, shotgunTake))
			r.Post("/shotgun/shot", GameHandler(gs, shotgunShot))
			r.Post("/bluff", GameHandler(gs, callBluff))
			r.Post("/color/{color}", GameHandler(gs, chooseColor))
			r.Post("/player/{id}", GameHandler(gs, choosePlayer))
			r.Post("/card", GameHandler(gs, playCard))
		})
	})

	return r
}
