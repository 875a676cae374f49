package api

import (
	"context"
	"net/http"
)

type contextKey string

const consumerKey contextKey = "consumer"

// requireParams rejects requests missing any of the expected query
// parameters with a 400 naming the first missing one.
func requireParams(params ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			for _, param := range params {
				if query.Get(param) == "" {
					writeJSON(w, http.StatusBadRequest, buildError(http.StatusBadRequest, param+" is missing.", 0))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAPIKey gates a route on a known api_key and stores the consumer
// name in the request context for the usage counters.
func requireAPIKey(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, ok := keys[r.URL.Query().Get("api_key")]
			if !ok {
				writeJSON(w, http.StatusUnauthorized, buildError(http.StatusUnauthorized, "Unauthorized", 0))
				return
			}
			ctx := context.WithValue(r.Context(), consumerKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// consumerFromContext returns the consumer name set by requireAPIKey.
func consumerFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(consumerKey).(string); ok {
		return name
	}
	return "unknown"
}
