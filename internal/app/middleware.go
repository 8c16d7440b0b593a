package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func sessionToken(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := req.Cookie(user.SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {

	// Resolve the session token into the current user. Requests without a valid
	// session pass through anonymously; protected routes reject them later.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token := sessionToken(req)
			if token == "" {
				next.ServeHTTP(w, req)
				return
			}

			ctx := req.Context()
			uid, err := deps.Tokens.Validate(token)
			if err != nil {
				log.Debugf("ignoring invalid session token: %v", err)
				next.ServeHTTP(w, req)
				return
			}
			u, err := deps.UserService.GetUserByUid(ctx, uid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("session user not found: %s", uid)
					next.ServeHTTP(w, req)
					return
				}
				log.Errorf("failed to get user: %v", err)
				rest.WriteError(w, http.StatusInternalServerError, "Internal error", "")
				return
			}
			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	})
}

// requireUser rejects requests that carry no authenticated user.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, err := user.CurrentId(req.Context()); err != nil {
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		next.ServeHTTP(w, req)
	})
}
