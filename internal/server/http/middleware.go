package internalhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lomoval/otus-golang/event_planner/internal/app"
	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

const tokenHeader = "x-token"

type ctxKey int

const userKey ctxKey = iota

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		ip, err := getIP(r)
		if err != nil {
			log.Debugf("failed to get client IP: %v", err)
		}
		log.WithField("ip", ip).WithField("method", r.Method).WithField("path", r.URL).
			WithField("status", ww.Status()).WithField("request-id", chimiddleware.GetReqID(r.Context())).
			WithField("user-agent", r.Header.Get("user-agent")).
			WithField("latency", time.Since(start)).
			Info("http request processed")
	})
}

func authMiddleware(resolver app.TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(tokenHeader)
			if token == "" {
				writeText(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			u, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, app.ErrAuth) {
					writeText(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				log.Errorf("failed to resolve token: %v", err)
				writeText(w, http.StatusInternalServerError, errInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

func userFromContext(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(userKey).(storage.User)
	return u, ok
}
