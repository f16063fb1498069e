package infer

import (
	"context"
	"fmt"
	"time"

	"github.com/okairos/deltarig/internal/config"
)

// Model predicts a flat displacement vector from a single pose feature vector.
//
// Implementations must be immutable after Load and safe for concurrent
// Predict calls.
type Model interface {
	InputDim() int
	OutputDim() int
	Predict(ctx context.Context, in []float32) ([]float32, error)
}

// Runtime resolves serialized model artifacts into invokable models.
type Runtime interface {
	Name() string
	Load(ctx context.Context, ref ArtifactRef) (Model, error)
}

// ArtifactRef locates one model artifact and names the graph handles to bind.
type ArtifactRef struct {
	Root   string // artifact directory
	Meta   string // descriptor path
	Input  string // input handle name
	Output string // output handle name
}

// Config contains the resolved inference runtime configuration.
type Config struct {
	Runtime string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadConfig resolves runtime config from environment variables first, then ~/.deltarig/.env.
func LoadConfig() (*Config, error) {
	runtime, err := config.GetConfigValue("DELTARIG_RUNTIME")
	if err != nil {
		return nil, err
	}
	baseURL, err := config.GetConfigValue("DELTARIG_RUNTIME_URL")
	if err != nil {
		return nil, err
	}
	apiKey, err := config.GetConfigValue("DELTARIG_RUNTIME_API_KEY")
	if err != nil {
		return nil, err
	}
	timeoutStr, err := config.GetConfigValue("DELTARIG_RUNTIME_TIMEOUT")
	if err != nil {
		return nil, err
	}
	timeout := 30 * time.Second
	if timeoutStr != "" {
		timeout, err = time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DELTARIG_RUNTIME_TIMEOUT %q: %w", timeoutStr, err)
		}
	}

	return &Config{
		Runtime: runtime,
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: timeout,
	}, nil
}

// New returns the inference runtime selected by cfg.
// An empty runtime name selects the in-process native runtime.
func New(cfg *Config) (Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("runtime config is nil")
	}
	switch cfg.Runtime {
	case "", "native":
		return NewNative(), nil
	case "http":
		return NewHTTP(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported inference runtime: %s", cfg.Runtime)
	}
}
