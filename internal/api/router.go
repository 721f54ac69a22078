// Package api exposes the ledger over HTTP.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

// NewRouter builds the HTTP router for the ledger API.
func NewRouter(poster *ledger.Poster, accounts *ledger.Accounts) chi.Router {
	accountsHandler := NewAccountsHandler(accounts)
	entriesHandler := NewEntriesHandler(poster)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountsHandler.List)
			r.Post("/", accountsHandler.Create)
			r.Get("/{id}", accountsHandler.Get)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", entriesHandler.List)
			r.Post("/", entriesHandler.Create)
			r.Get("/{id}", entriesHandler.Get)
			r.Delete("/{id}", entriesHandler.Delete)
		})

		r.Get("/stats", entriesHandler.Stats)
	})

	return r
}
