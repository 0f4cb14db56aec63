package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

var visitors = make(map[string]*rate.Limiter)
var mu sync.Mutex

func getVisitor(ip string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	limiter, exists := visitors[ip]
	if !exists {
		// Allow 1 request per second with a burst of 3
		limiter = rate.NewLimiter(1, 3)
		visitors[ip] = limiter
	}

	return limiter
}

func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("CF-Connecting-IP")
		if ip == "" {
			ip, _, _ = net.SplitHostPort(r.RemoteAddr)
		}

		limiter := getVisitor(ip)
		if !limiter.Allow() {
			s.Log.Printf("rate limit exceeded for IP: %s", ip)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateSessionToken accepts either a live session or an
// "email:password" Authorization header. Either way the resolved email
// rides the request context for the handlers downstream.
func (s *Server) ValidateSessionToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := s.Session.GetString(r.Context(), "email")
		if email == "" {
			token := r.Header.Get("Authorization")
			parts := strings.Split(token, ":")
			if token == "" || len(parts) != 2 {
				http.Error(w, "Token is missing or malformed", http.StatusUnauthorized)
				return
			}
			user, err := s.DB.GetUserByEmail(parts[0])
			if err != nil || user.Email == "" {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if !user.CheckPassword(parts[1]) {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			email = user.Email
		}

		ctx := context.WithValue(r.Context(), emailContextKey, email)
		next(w, r.WithContext(ctx))
	}
}

type contextKey string

const emailContextKey contextKey = "email"

func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.Details.CorsOrigins {
			if origin == allowed || allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
