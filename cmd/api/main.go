package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"race-extractor/ai"
	"race-extractor/cache"
	"race-extractor/internal/types"
	"race-extractor/scraper"
)

// APIRequest is the request body for the scrape endpoint
type APIRequest struct {
	URL string `json:"url"`
}

// Server holds the API server dependencies
type Server struct {
	logger  *logrus.Logger
	scraper *scraper.Scraper
	cache   *cache.Cache // nil when Redis is not configured
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	config := types.DefaultConfig()

	var extractor ai.Extractor
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		extractor = ai.NewClient(apiKey, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, LLM fallback disabled")
	}

	var resultCache *cache.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		resultCache = cache.New(addr, 6*time.Hour, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := resultCache.Ping(ctx); err != nil {
			logger.Warnf("Redis unavailable at %s, caching disabled: %v", addr, err)
			resultCache = nil
		}
	}

	return &Server{
		logger:  logger,
		scraper: scraper.New(config, logger, extractor),
		cache:   resultCache,
	}
}

// handleScrape handles the scrape API endpoint
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSON(w, http.StatusBadRequest, types.Fail("Invalid request body."))
		return
	}
	if req.URL == "" {
		s.sendJSON(w, http.StatusBadRequest, types.Fail("No URL provided."))
		return
	}

	s.logger.Infof("API request received for %s", req.URL)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result := s.cache.Memoize(ctx, "scrape:"+req.URL, func() types.ScrapeResult {
		return s.scraper.ScrapeRaceResult(ctx, req.URL)
	})

	// Scrape failures are still HTTP 200: the outcome contract travels in
	// the body, and clients present the error copy to the user.
	s.sendJSON(w, http.StatusOK, result)
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

func main() {
	server := NewServer()

	router := mux.NewRouter()
	router.HandleFunc("/scrape", server.handleScrape).Methods(http.MethodPost)
	router.HandleFunc("/health", server.handleHealth).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      cors(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
	}

	server.logger.Infof("API server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		server.logger.Fatalf("Server failed: %v", err)
	}
}
