package insightd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/insightmap/insightmap/internal/client"
	"github.com/insightmap/insightmap/internal/model"
)

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServer_GenerateEndpoint(t *testing.T) {
	srv := NewServer(NewKeywordGenerator(), 600, 10)

	w := postJSON(t, srv.Handler(), "/api/insights/generate", client.GenerateRequest{
		JourneyID:  "jm1",
		SourceType: model.ArtifactInterview,
		Data:       testDataset(),
		JourneyMap: testJourneyMap(),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp client.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || len(resp.Insights) == 0 {
		t.Fatalf("expected successful generation, got %+v", resp)
	}
	for _, ins := range resp.Insights {
		if ins.TempID == "" {
			t.Error("every insight needs a tempId")
		}
		if len(ins.Evidence) == 0 {
			t.Errorf("insight %q has no evidence", ins.Title)
		}
	}
}

func TestServer_GenerateWithoutData(t *testing.T) {
	srv := NewServer(NewKeywordGenerator(), 600, 10)

	w := postJSON(t, srv.Handler(), "/api/insights/generate", client.GenerateRequest{JourneyID: "jm1"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp client.GenerateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Success || len(resp.Errors) == 0 {
		t.Fatalf("expected service-reported failure, got %+v", resp)
	}
}

func TestServer_MatchEndpoint(t *testing.T) {
	srv := NewServer(NewKeywordGenerator(), 600, 10)

	w := postJSON(t, srv.Handler(), "/api/insights/match", client.MatchRequest{
		Insights: []model.GeneratedInsight{
			{TempID: "t1", Title: "Pain points around Signup", Summary: "signup form confusing"},
		},
		JourneyMap: testJourneyMap(),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp client.MatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Insights) != 1 || resp.Insights[0].TempID != "t1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	placements := resp.Insights[0].SuggestedPlacements
	if len(placements) == 0 {
		t.Fatal("expected placements")
	}
	for i := 0; i+1 < len(placements); i++ {
		if placements[i].Confidence < placements[i+1].Confidence {
			t.Errorf("placements not sorted descending at %d", i)
		}
	}
}

func TestServer_RateLimitResponse(t *testing.T) {
	// Burst of 1 and a very slow refill: the second request must be throttled.
	srv := NewServer(NewKeywordGenerator(), 1, 1)

	body := client.MatchRequest{
		Insights:   []model.GeneratedInsight{{TempID: "t1", Title: "Signup"}},
		JourneyMap: testJourneyMap(),
	}

	if w := postJSON(t, srv.Handler(), "/api/insights/match", body); w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	w := postJSON(t, srv.Handler(), "/api/insights/match", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	var rl struct {
		Error     string `json:"error"`
		ResetTime int64  `json:"resetTime"`
		Limit     int    `json:"limit"`
		Remaining int    `json:"remaining"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rl); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if rl.Error != "rate_limit" {
		t.Errorf("expected error discriminator rate_limit, got %q", rl.Error)
	}
	if rl.ResetTime <= time.Now().UnixMilli() {
		t.Errorf("reset time must be in the future, got %d", rl.ResetTime)
	}
	if rl.Limit != 1 {
		t.Errorf("expected limit 1, got %d", rl.Limit)
	}
	if rl.Message == "" {
		t.Error("expected a human-readable message")
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(NewKeywordGenerator(), 600, 10)
	req := httptest.NewRequest(http.MethodGet, "/api/insights/generate", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
