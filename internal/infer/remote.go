package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

type httpRuntime struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTP constructs a runtime that forwards predictions to an inference
// server. The descriptor is still read locally to bind handles and dims;
// only the weight blob stays server-side.
//
// It uses the REST endpoint:
//
//	POST {baseURL}/predict
//
// with JSON body:
//
//	{"model": "...", "output": "...", "input": [...]}
func NewHTTP(cfg *Config) Runtime {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpRuntime{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *httpRuntime) Name() string { return "http" }

func (r *httpRuntime) Load(_ context.Context, ref ArtifactRef) (Model, error) {
	if r.baseURL == "" {
		return nil, fmt.Errorf("runtime URL is not configured (set DELTARIG_RUNTIME_URL)")
	}
	desc, err := LoadDescriptor(ref.Meta)
	if err != nil {
		return nil, err
	}
	if ref.Input != "" && ref.Input != desc.Input {
		return nil, fmt.Errorf("artifact %s has no input handle %q (declares %q)", ref.Meta, ref.Input, desc.Input)
	}
	if ref.Output != "" && ref.Output != desc.Output {
		return nil, fmt.Errorf("artifact %s has no output handle %q (declares %q)", ref.Meta, ref.Output, desc.Output)
	}
	name := filepath.Base(ref.Root)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("cannot derive served model name from root %q", ref.Root)
	}
	return &httpModel{
		rt:     r,
		name:   name,
		output: desc.Output,
		inDim:  desc.Layers[0].UnitsIn,
		outDim: desc.Layers[len(desc.Layers)-1].UnitsOut,
	}, nil
}

type httpModel struct {
	rt     *httpRuntime
	name   string
	output string
	inDim  int
	outDim int
}

func (m *httpModel) InputDim() int  { return m.inDim }
func (m *httpModel) OutputDim() int { return m.outDim }

func (m *httpModel) Predict(ctx context.Context, in []float32) ([]float32, error) {
	if len(in) != m.inDim {
		return nil, fmt.Errorf("input length %d, model expects %d", len(in), m.inDim)
	}

	reqBody := map[string]any{
		"model":  m.name,
		"output": m.output,
		"input":  in,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.rt.baseURL+"/predict", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.rt.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.rt.apiKey)
	}

	resp, err := m.rt.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("predict request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Prediction []float64 `json:"prediction"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse predict response: %w", err)
	}
	if len(parsed.Prediction) == 0 {
		return nil, fmt.Errorf("predict response missing prediction")
	}

	out := make([]float32, len(parsed.Prediction))
	for i, v := range parsed.Prediction {
		out[i] = float32(v)
	}
	return out, nil
}
