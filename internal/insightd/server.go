package insightd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/insightmap/insightmap/internal/client"
)

// Server serves the generation and matching endpoints behind one shared
// request throttle. Both endpoints report throttling with the structured
// rate-limit body clients discriminate on.
type Server struct {
	generator Generator
	matcher   *KeywordMatcher
	limiter   *rate.Limiter
	limit     int // Requests per minute, echoed in the 429 body
	now       func() time.Time
}

// NewServer creates a server with a token-bucket throttle of requestsPerMinute
func NewServer(generator Generator, requestsPerMinute float64, burst int) *Server {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		generator: generator,
		matcher:   NewKeywordMatcher(),
		limiter:   rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst),
		limit:     int(requestsPerMinute),
		now:       time.Now,
	}
}

// Handler returns the HTTP handler for the service
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/insights/generate", s.handleGenerate)
	mux.HandleFunc("/api/insights/match", s.handleMatch)
	return mux
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.throttle(w) {
		return
	}

	var req client.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Data == nil {
		writeJSON(w, http.StatusOK, client.GenerateResponse{
			Success: false,
			Errors:  []string{"no research data supplied"},
		})
		return
	}

	insights, err := s.generator.GenerateInsights(r.Context(), req.Data)
	if err != nil {
		writeJSON(w, http.StatusOK, client.GenerateResponse{
			Success: false,
			Errors:  []string{err.Error()},
		})
		return
	}

	// An empty result is reported honestly; the caller decides what an
	// empty batch means.
	writeJSON(w, http.StatusOK, client.GenerateResponse{Success: true, Insights: insights})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.throttle(w) {
		return
	}

	var req client.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.JourneyMap == nil {
		http.Error(w, "journeyMap is required", http.StatusBadRequest)
		return
	}

	matched := s.matcher.MatchInsights(req.Insights, req.JourneyMap)
	writeJSON(w, http.StatusOK, client.MatchResponse{Insights: matched})
}

// throttle admits the request or writes the rate-limit response. The reset
// time is when the token bucket would next admit a request.
func (s *Server) throttle(w http.ResponseWriter) bool {
	res := s.limiter.Reserve()
	if !res.OK() {
		s.writeRateLimit(w, time.Minute)
		return false
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		s.writeRateLimit(w, delay)
		return false
	}
	return true
}

func (s *Server) writeRateLimit(w http.ResponseWriter, wait time.Duration) {
	remaining := int(s.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":     "rate_limit",
		"resetTime": s.now().Add(wait).UnixMilli(),
		"limit":     s.limit,
		"remaining": remaining,
		"message":   fmt.Sprintf("request limit reached, retry in %s", wait.Round(time.Second)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
