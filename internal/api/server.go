package api

import (
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/smartinbox/smartinbox/internal/assistant"
	"github.com/smartinbox/smartinbox/internal/config"
	"github.com/smartinbox/smartinbox/internal/database"
	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/search"
	"github.com/smartinbox/smartinbox/internal/store"
)

// Server holds the API server dependencies
type Server struct {
	cfg       *config.Config
	db        *database.DB
	store     *store.Store
	engine    *search.Engine
	assistant *assistant.Assistant
	sanitizer *mail.Sanitizer
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, db *database.DB, st *store.Store) *Server {
	return &Server{
		cfg:       cfg,
		db:        db,
		store:     st,
		engine:    search.NewEngine(st),
		assistant: assistant.New(st, cfg.OpenAIKey, cfg.OpenAIModel),
		sanitizer: mail.NewSanitizer(),
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.rateLimitMiddleware)
	r.Use(s.securityHeadersMiddleware)

	// CORS - configure from environment in production
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.getAllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// CSRF Protection - derive key from AppSecret
	isSecure := os.Getenv("ENV") == "production"
	csrfMiddleware := csrf.Protect(
		s.deriveCSRFKey(),
		csrf.Secure(isSecure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Str("ip", r.RemoteAddr).
				Msg("CSRF token validation failed")
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	)
	r.Use(s.csrfExemptMiddleware(csrfMiddleware))

	// Health endpoints (no auth)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// CSRF token endpoint (no auth required, but CSRF protected)
		r.Get("/csrf-token", s.getCSRFToken)

		// Identity provider webhook (signature-verified, not session-authenticated)
		r.Post("/webhooks/identity", s.identityWebhook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Auth
			r.Post("/auth/logout", s.logout)
			r.Get("/auth/me", s.me)

			// Search
			r.Route("/search", func(r chi.Router) {
				r.Get("/", s.searchThreads)
				r.Get("/suggest", s.searchSuggestions)
				r.Get("/analytics", s.searchAnalytics)
			})

			// Threads
			r.Route("/threads", func(r chi.Router) {
				r.Get("/", s.listThreads)
				r.Get("/{id}", s.getThread)
			})

			// Assistant
			r.Post("/chat", s.chat)
		})
	})

	return r
}

// Logger middleware
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// Health check handlers
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// deriveCSRFKey derives a 32-byte CSRF key from the AppSecret
func (s *Server) deriveCSRFKey() []byte {
	hash := sha256.Sum256([]byte(s.cfg.AppSecret + "-csrf"))
	return hash[:]
}

// csrfExemptMiddleware wraps CSRF middleware and exempts certain paths
func (s *Server) csrfExemptMiddleware(csrfHandler func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		csrfProtected := csrfHandler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt health checks
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			// Exempt the identity webhook; it authenticates with an HMAC
			// signature instead of a browser session
			if strings.HasPrefix(r.URL.Path, "/api/v1/webhooks/") {
				next.ServeHTTP(w, r)
				return
			}

			csrfProtected.ServeHTTP(w, r)
		})
	}
}

// getAllowedOrigins returns CORS allowed origins from environment or defaults
func (s *Server) getAllowedOrigins() []string {
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins != "" {
		return strings.Split(origins, ",")
	}

	// Default to localhost for development
	if os.Getenv("ENV") != "production" {
		return []string{"http://localhost:5173", "http://localhost:8080"}
	}

	log.Warn().Msg("CORS_ALLOWED_ORIGINS not set in production - using restrictive default")
	return []string{}
}

// Rate limiter implementation
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

func (l *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = limiter
	}

	return limiter
}

// Cleanup old limiters periodically (called from a goroutine)
func (l *ipRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Clearing everything hourly keeps memory bounded under many unique IPs
	l.limiters = make(map[string]*rate.Limiter)
}

// Global rate limiter: 10 req/s, burst 30
var globalLimiter = newIPRateLimiter(10, 30)

func init() {
	go func() {
		for {
			time.Sleep(time.Hour)
			globalLimiter.cleanup()
		}
	}()
}

// rateLimitMiddleware applies global rate limiting
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Extract IP without port if present
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}

		limiter := globalLimiter.getLimiter(ip)
		if !limiter.Allow() {
			log.Warn().
				Str("ip", ip).
				Str("path", r.URL.Path).
				Msg("Rate limit exceeded")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers to all responses
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'; "+
				"frame-ancestors 'none'; "+
				"form-action 'self'")

		// HSTS - only in production with HTTPS
		if os.Getenv("ENV") == "production" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// getCSRFToken returns the CSRF token for the current request
func (s *Server) getCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"csrfToken": token,
	})
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
