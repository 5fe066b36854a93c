package api

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

func (s *SaathiApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware requires a bearer token in the Authorization header. A
// missing header yields 401, an invalid or expired token 403. The decoded
// identity is attached to the request context.
func (s *SaathiApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r.Header.Get("Authorization"))
		if tokenString == "" {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ident, err := s.identityFromToken(tokenString)
		if err != nil {
			s.log.Printf("failed to extract identity from token: %v", err)
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		ctx := WithIdentity(r.Context(), ident)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}

// rateLimit caps request throughput on the wrapped handler. Applied to the
// register and login endpoints to slow down credential guessing.
func (s *SaathiApp) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(5), 10)
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			errResp := NewTooManyRequestsError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		next(w, r)
	}
}
