package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewHandler mounts the voting-integrity routes. Authentication is the
// surrounding platform's job; these handlers trust the member identity the
// caller supplies.
func NewHandler(ballotHandler *BallotHandler, integrityHandler *IntegrityHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/votes", ballotHandler.CastVote)
			r.Get("/integrity", integrityHandler.VerifySession)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/verify", ballotHandler.VerifyReceipt)
		})

		r.Route("/signatures", func(r chi.Router) {
			r.Post("/verify", ballotHandler.VerifySignature)
		})
	})

	return r
}
