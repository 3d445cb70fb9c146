package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func analyzeFixture() string {
	return `{
		"status": "success",
		"mode": "auto",
		"day_index": 4,
		"input_echo": [6.4, 0.32, 12, 60.5, 0.45, 0.3],
		"risk_level": "Moderate",
		"confidence": 0.81,
		"trend": "Increasing Trend",
		"explanation": "Status: Moderate\nNight usage appears elevated.",
		"counterfactual": "Tip: Reducing **Night Usage Ratio** may help.",
		"feature_data": [
			{"name": "night_usage_ratio", "importance": 0.4},
			{"name": "avg_daily_screen_time", "importance": 0.3}
		]
	}`
}

func TestAnalyzeManualPayloadCarriesFeatures(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(analyzeFixture()))
	}))
	defer server.Close()

	client := newAnalysisClient(server.URL)
	features := featureVector{
		ScreenTime:        7.5,
		NightRatio:        0.4,
		AppDiversity:      9,
		TypingVariance:    80,
		SleepIrregularity: 0.6,
		SocialWithdrawal:  0.5,
	}
	result, err := client.Analyze(context.Background(), modeManual, &features)
	if err != nil {
		t.Fatalf("expected analyze to succeed, got %v", err)
	}
	if captured["mode"] != "manual" {
		t.Fatalf("expected mode manual, got %v", captured["mode"])
	}
	wantFields := map[string]float64{
		"avg_daily_screen_time":       7.5,
		"night_usage_ratio":           0.4,
		"app_usage_diversity":         9,
		"typing_speed_variance":       80,
		"sleep_irregularity_score":    0.6,
		"social_app_withdrawal_score": 0.5,
	}
	for name, want := range wantFields {
		got, ok := captured[name].(float64)
		if !ok {
			t.Fatalf("expected field %q in manual payload", name)
		}
		if got != want {
			t.Fatalf("expected %q = %v, got %v", name, want, got)
		}
	}
	if result.RiskLevel != "Moderate" {
		t.Fatalf("unexpected risk level %q", result.RiskLevel)
	}
	if result.DayIndex != 4 {
		t.Fatalf("unexpected day index %d", result.DayIndex)
	}
	if len(result.FeatureData) != 2 || result.FeatureData[0].Importance != 0.4 {
		t.Fatalf("unexpected feature data: %+v", result.FeatureData)
	}
	if len(result.InputEcho) != 6 {
		t.Fatalf("unexpected input echo: %v", result.InputEcho)
	}
}

func TestAnalyzeAutoPayloadOmitsFeatures(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(analyzeFixture()))
	}))
	defer server.Close()

	if _, err := newAnalysisClient(server.URL).Analyze(context.Background(), modeAuto, nil); err != nil {
		t.Fatalf("expected analyze to succeed, got %v", err)
	}
	if captured["mode"] != "auto" {
		t.Fatalf("expected mode auto, got %v", captured["mode"])
	}
	if len(captured) != 1 {
		t.Fatalf("expected auto payload to carry only the mode tag, got %v", captured)
	}
}

func TestAnalyzeManualWithoutFeaturesFails(t *testing.T) {
	if _, err := newAnalysisClient("http://127.0.0.1:0").Analyze(context.Background(), modeManual, nil); err == nil {
		t.Fatalf("expected manual analyze without features to fail")
	}
}

func TestAnalyzeTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	if _, err := newAnalysisClient(server.URL).Analyze(context.Background(), modeAuto, nil); err == nil {
		t.Fatalf("expected transport failure")
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer server.Close()

	if _, err := newAnalysisClient(server.URL).Analyze(context.Background(), modeAuto, nil); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestAnalyzeErrorStatusDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status": "error", "message": "scaler not ready"}`))
	}))
	defer server.Close()

	result, err := newAnalysisClient(server.URL).Analyze(context.Background(), modeAuto, nil)
	if err != nil {
		t.Fatalf("expected non-success envelope to decode, got %v", err)
	}
	if result.Status != "error" {
		t.Fatalf("expected status error, got %q", result.Status)
	}
}

func TestResetCompletionOnly(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reset" || r.Method != http.MethodPost {
			t.Errorf("unexpected reset request %s %s", r.Method, r.URL.Path)
		}
		hits++
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	if err := newAnalysisClient(server.URL).Reset(context.Background()); err != nil {
		t.Fatalf("expected reset to ignore the response status, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one reset call, got %d", hits)
	}
}
