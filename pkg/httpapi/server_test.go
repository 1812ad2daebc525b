package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/backend"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/cache"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/governor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/ratelimit"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/selector"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	rates := config.CostRates{TextPer1KTokens: 0.002, ImageBase: 0.04}
	mon := monitor.New(config.MonitorConfig{
		LogCapacity: 128,
		DailyBudget: 10,
		Rates:       rates,
	}, nil)

	store := cache.New(100, nil, 0)
	limiter := ratelimit.New(map[string]config.ActionLimit{
		governor.ActionText: {
			Window:      time.Minute,
			MaxRequests: 3,
			MaxCost:     10,
			BurstWindow: time.Second,
			BurstMax:    3,
		},
	}, 0)

	sel := selector.New(config.DefaultModels(), rates)
	retrier := backend.NewRetrier(backend.PlaceholderBackend{}, 0, time.Millisecond, nil)

	gov := governor.New(store, nil, limiter, mon, sel, retrier, time.Hour)
	t.Cleanup(func() {
		store.Close()
		limiter.Close()
		mon.Close()
	})
	return NewServer(gov)
}

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
}

func postGenerate(t *testing.T, url string, req models.GenerationRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/api/generate", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("POST /api/generate: %v", err)
	}
	return resp
}

func TestGenerateEndToEnd(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp := postGenerate(t, srv.URL, models.GenerationRequest{
		UserID:      "u1",
		Tier:        models.TierFree,
		ContentType: models.ContentText,
		Prompt:      "conjugate ser in present tense",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}

	var res models.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(res.Data) == 0 {
		t.Fatal("empty generation data")
	}
	if res.FromCache {
		t.Fatal("first request marked as cache hit")
	}

	// Same prompt again is a cache hit and skips the limiter.
	resp2 := postGenerate(t, srv.URL, models.GenerationRequest{
		UserID:      "u1",
		Tier:        models.TierFree,
		ContentType: models.ContentText,
		Prompt:      "conjugate ser in present tense",
	})
	defer resp2.Body.Close()
	var res2 models.GenerationResult
	if err := json.NewDecoder(resp2.Body).Decode(&res2); err != nil {
		t.Fatalf("decode second result: %v", err)
	}
	if !res2.FromCache {
		t.Fatal("repeat request missed the cache")
	}
}

func TestGenerateMissingPrompt(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp := postGenerate(t, srv.URL, models.GenerationRequest{UserID: "u1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	for i := 0; i < 3; i++ {
		resp := postGenerate(t, srv.URL, models.GenerationRequest{
			UserID:      "u1",
			Tier:        models.TierFree,
			ContentType: models.ContentText,
			Prompt:      "distinct prompt number " + string(rune('a'+i)),
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, resp.StatusCode)
		}
	}

	resp := postGenerate(t, srv.URL, models.GenerationRequest{
		UserID:      "u1",
		Tier:        models.TierFree,
		ContentType: models.ContentText,
		Prompt:      "one prompt too many",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestStatsAndBudgetEndpoints(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp := postGenerate(t, srv.URL, models.GenerationRequest{
		UserID:      "u1",
		Tier:        models.TierPremium,
		ContentType: models.ContentText,
		Prompt:      "teach me colors in spanish",
	})
	resp.Body.Close()

	statsResp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer statsResp.Body.Close()
	var stats models.UsageStats
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalRequests != 1 {
		t.Fatalf("total requests %d, want 1", stats.TotalRequests)
	}

	budgetResp, err := http.Get(srv.URL + "/api/budget")
	if err != nil {
		t.Fatalf("GET /api/budget: %v", err)
	}
	defer budgetResp.Body.Close()
	var budget models.BudgetStatus
	if err := json.NewDecoder(budgetResp.Body).Decode(&budget); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if budget.DailyBudget != 10 {
		t.Fatalf("daily budget %v, want 10", budget.DailyBudget)
	}
}

func TestCacheAdminEndpoints(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp := postGenerate(t, srv.URL, models.GenerationRequest{
		UserID:      "u1",
		Tier:        models.TierPremium,
		ContentType: models.ContentText,
		Prompt:      "numbers one through ten",
	})
	resp.Body.Close()

	statsResp, err := http.Get(srv.URL + "/api/cache/stats")
	if err != nil {
		t.Fatalf("GET /api/cache/stats: %v", err)
	}
	defer statsResp.Body.Close()
	var stats models.CacheStats
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode cache stats: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("cache entries %d, want 1", stats.Entries)
	}

	clearResp, err := http.Post(srv.URL+"/api/cache/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/cache/clear: %v", err)
	}
	clearResp.Body.Close()

	statsResp2, err := http.Get(srv.URL + "/api/cache/stats")
	if err != nil {
		t.Fatalf("GET /api/cache/stats: %v", err)
	}
	defer statsResp2.Body.Close()
	var after models.CacheStats
	if err := json.NewDecoder(statsResp2.Body).Decode(&after); err != nil {
		t.Fatalf("decode cache stats: %v", err)
	}
	if after.Entries != 0 {
		t.Fatalf("cache entries after clear %d, want 0", after.Entries)
	}
}

func TestAlertEndpointsEmpty(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/alerts")
	if err != nil {
		t.Fatalf("GET /api/alerts: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Count  int            `json:"count"`
		Alerts []models.Alert `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if body.Count != 0 {
		t.Fatalf("alert count %d, want 0", body.Count)
	}

	ackResp, err := http.Post(srv.URL+"/api/alerts/nope/acknowledge", "application/json", nil)
	if err != nil {
		t.Fatalf("POST acknowledge: %v", err)
	}
	defer ackResp.Body.Close()
	if ackResp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", ackResp.StatusCode)
	}
}
