package receipt

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles HTTP requests for receipts
type Server struct {
	service   *Service
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses and answers preflights
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Tab Split"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux.
// Routes must be registered from most specific to least specific.
func (s *Server) registerRoutes() {
	// Draft (host workflow)
	s.mux.HandleFunc("POST /api/draft/publish", s.requireAuth(s.handlePublishDraft))
	s.mux.HandleFunc("POST /api/draft/items", s.requireAuth(s.handleAddDraftItem))
	s.mux.HandleFunc("DELETE /api/draft/items/{itemID}", s.requireAuth(s.handleDeleteDraftItem))
	s.mux.HandleFunc("GET /api/draft", s.requireAuth(s.handleGetDraft))
	s.mux.HandleFunc("PUT /api/draft", s.requireAuth(s.handleSetDraftDetails))
	s.mux.HandleFunc("DELETE /api/draft", s.requireAuth(s.handleDiscardDraft))

	// Published receipts
	s.mux.HandleFunc("GET /api/receipts/{id}/split", s.requireAuth(s.handleGetSplit))
	s.mux.HandleFunc("GET /api/receipts/{id}/balances", s.requireAuth(s.handleGetBalances))
	s.mux.HandleFunc("GET /api/receipts/{id}/share", s.requireAuth(s.handleGetShare))
	s.mux.HandleFunc("GET /api/receipts/{id}/export", s.requireAuth(s.handleExportReceipt))
	s.mux.HandleFunc("POST /api/receipts/{id}/claims", s.requireAuth(s.handleToggleClaim))
	s.mux.HandleFunc("POST /api/receipts/{id}/payments", s.requireAuth(s.handleRecordPayment))
	s.mux.HandleFunc("POST /api/receipts/{id}/confirmations", s.requireAuth(s.handleConfirmSelection))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.requireAuth(s.handleDeleteReceipt))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListReceipts))
	s.mux.HandleFunc("POST /api/receipts/import", s.requireAuth(s.handleImportReceipt))
	s.mux.HandleFunc("POST /api/receipts/scan", s.requireAuth(s.handleScanReceipt))

	// Share link resolution (guest entry point)
	s.mux.HandleFunc("GET /api/resolve", s.requireAuth(s.handleResolve))

	// Metrics
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
