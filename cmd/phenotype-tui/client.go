package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type featureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// analysisResult is the /api/analyze response contract. day_index and
// input_echo are populated by the service in auto mode only.
type analysisResult struct {
	Status         string              `json:"status"`
	Mode           string              `json:"mode"`
	DayIndex       int                 `json:"day_index"`
	InputEcho      []float64           `json:"input_echo"`
	RiskLevel      string              `json:"risk_level"`
	Confidence     float64             `json:"confidence"`
	Trend          string              `json:"trend"`
	Explanation    string              `json:"explanation"`
	Counterfactual string              `json:"counterfactual"`
	FeatureData    []featureImportance `json:"feature_data"`
}

// featureVector holds the six operator-supplied behavioral features
// read from the input surface at dispatch time.
type featureVector struct {
	ScreenTime        float64
	NightRatio        float64
	AppDiversity      float64
	TypingVariance    float64
	SleepIrregularity float64
	SocialWithdrawal  float64
}

func (v featureVector) payload() map[string]any {
	return map[string]any{
		"avg_daily_screen_time":       v.ScreenTime,
		"night_usage_ratio":           v.NightRatio,
		"app_usage_diversity":         v.AppDiversity,
		"typing_speed_variance":       v.TypingVariance,
		"sleep_irregularity_score":    v.SleepIrregularity,
		"social_app_withdrawal_score": v.SocialWithdrawal,
	}
}

type analysisClient struct {
	baseURL string
	http    *http.Client
}

func newAnalysisClient(baseURL string) *analysisClient {
	return &analysisClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
	}
}

// Analyze posts one assessment request. Manual mode attaches the six
// feature values; auto mode sends only the mode tag and lets the
// service synthesize inputs.
func (c *analysisClient) Analyze(ctx context.Context, mode runMode, features *featureVector) (analysisResult, error) {
	args := map[string]any{"mode": mode.String()}
	if mode == modeManual {
		if features == nil {
			return analysisResult{}, errors.New("manual analyze requires feature values")
		}
		for name, value := range features.payload() {
			args[name] = value
		}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return analysisResult{}, fmt.Errorf("encode analyze payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return analysisResult{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return analysisResult{}, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()
	var result analysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return analysisResult{}, fmt.Errorf("invalid analyze response: %w", err)
	}
	return result, nil
}

// Reset clears the service-side simulation state. The response is not
// inspected beyond completion.
func (c *analysisClient) Reset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reset", nil)
	if err != nil {
		return fmt.Errorf("build reset request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
