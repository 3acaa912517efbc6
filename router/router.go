// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/planify/cliparse"
	"github.com/danielhkuo/planify/handlers"
	"github.com/danielhkuo/planify/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	sessionHandler := handlers.NewSessionHandler(db, cfg)
	friendHandler := handlers.NewFriendHandler(db, cfg)
	eventHandler := handlers.NewEventHandler(db, cfg)
	pollHandler := handlers.NewPollHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	pushHandler := handlers.NewPushHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Identity
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.Register))
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(sessionHandler.Login))
	mux.HandleFunc("POST /auth/logout", middleware.WithLogging(sessionHandler.Logout))
	mux.HandleFunc("GET /users/me", middleware.WithLogging(userHandler.GetMe))
	mux.HandleFunc("PATCH /users/me", middleware.WithLogging(userHandler.UpdateMe))

	// Friendships
	mux.HandleFunc("POST /friends/requests", middleware.WithLogging(friendHandler.Request))
	mux.HandleFunc("POST /friends/requests/{id}/accept", middleware.WithLogging(friendHandler.Accept))
	mux.HandleFunc("DELETE /friends/{id}", middleware.WithLogging(friendHandler.Remove))
	mux.HandleFunc("GET /friends", middleware.WithLogging(friendHandler.List))
	mux.HandleFunc("GET /friends/requests", middleware.WithLogging(friendHandler.ListRequests))

	// Events and participation
	mux.HandleFunc("POST /events", middleware.WithLogging(eventHandler.Create))
	mux.HandleFunc("GET /events", middleware.WithLogging(eventHandler.List))
	mux.HandleFunc("GET /events/{id}", middleware.WithLogging(eventHandler.Get))
	mux.HandleFunc("DELETE /events/{id}", middleware.WithLogging(eventHandler.Delete))
	mux.HandleFunc("POST /events/{id}/invite", middleware.WithLogging(eventHandler.Invite))
	mux.HandleFunc("POST /events/{id}/respond", middleware.WithLogging(eventHandler.Respond))

	// Consensus polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.Create))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.List))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.Get))
	mux.HandleFunc("POST /polls/{id}/cancel", middleware.WithLogging(pollHandler.Cancel))
	mux.HandleFunc("POST /polls/vote", middleware.WithLogging(votingHandler.CastVote))

	// Push subscriptions and notifications
	mux.HandleFunc("POST /push/subscriptions", middleware.WithLogging(pushHandler.Subscribe))
	mux.HandleFunc("DELETE /push/subscriptions", middleware.WithLogging(pushHandler.Unsubscribe))
	mux.HandleFunc("GET /notifications", middleware.WithLogging(pushHandler.ListNotifications))
	mux.HandleFunc("POST /notifications/{id}/read", middleware.WithLogging(pushHandler.MarkRead))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("planify API v1"))
	})

	return mux
}
