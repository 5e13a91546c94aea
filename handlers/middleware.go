package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/fixtura/livescore-system/services"
)

type contextKey string

const capabilityContextKey contextKey = "admin_capability"

// RequireAdmin verifies the bearer token and stores the resulting admin
// capability in the request context. Handlers pull it out with
// capabilityFromRequest and pass it explicitly into the services.
func RequireAdmin(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorizedResponse(w, r, "missing bearer token")
				return
			}

			cap, err := auth.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorizedResponse(w, r, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), capabilityContextKey, cap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func capabilityFromRequest(r *http.Request) services.Capability {
	cap, _ := r.Context().Value(capabilityContextKey).(services.Capability)
	return cap
}
