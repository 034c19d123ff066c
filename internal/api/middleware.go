package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/auth"
)

// Authenticate resolves the bearer token to an actor and stores it on the request context.
func Authenticate(a auth.Authorizer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearerToken(r)
			if err != nil {
				respond.WriteUnauthorized(w, err.Error())
				return
			}
			actor, err := a.Authorize(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("authorization failed")
				respond.WriteUnauthorized(w, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// actorID returns the authenticated caller. Routes behind Authenticate always have one.
func actorID(r *http.Request) string {
	if a, ok := auth.ActorFromContext(r.Context()); ok {
		return a.ActorID
	}
	return ""
}
