// Package llm is the gateway to the text-completion backends. Every stage
// sends one system instruction and one user prompt and gets raw text back.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kamilpajak/bugsy/internal/config"
)

var (
	// ErrConfiguration means the backend cannot be used at all, e.g. a
	// missing API key or an unknown provider.
	ErrConfiguration = errors.New("llm configuration error")
	// ErrBackend covers transport failures, non-200 replies and empty
	// responses.
	ErrBackend = errors.New("llm backend error")
)

// Generator produces a completion for a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// New returns the Generator for cfg.Provider. cfg is expected to be
// normalized (see config.Config.Normalize).
func New(cfg config.LLM) (Generator, error) {
	if cfg.Offline {
		return nil, fmt.Errorf("%w: offline mode, model calls disabled", ErrConfiguration)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s environment variable required", ErrConfiguration, keyEnvName(cfg.Provider))
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	httpClient := &http.Client{Timeout: timeout}

	var gen Generator
	switch cfg.Provider {
	case config.ProviderDeepSeek, config.ProviderOpenAI:
		gen = NewOpenAIClient(cfg, httpClient)
	case config.ProviderAnthropic:
		gen = NewAnthropicClient(cfg, httpClient)
	case config.ProviderGoogle:
		gen, err = NewGoogleClient(context.Background(), cfg, httpClient)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, cfg.Provider)
	}

	return WithRateLimit(gen, cfg.RequestsPerMinute), nil
}

func keyEnvName(provider string) string {
	if env := config.KeyEnv(provider); env != "" {
		return env
	}
	return "API key"
}

// WithRateLimit gates gen to rpm calls per minute. rpm <= 0 returns gen.
func WithRateLimit(gen Generator, rpm int) Generator {
	if rpm <= 0 {
		return gen
	}
	return &limited{
		next:    gen,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

type limited struct {
	next    Generator
	limiter *rate.Limiter
}

func (l *limited) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", ErrBackend, err)
	}
	return l.next.Generate(ctx, system, prompt)
}

// Unavailable is a Generator that always fails with Err. It stands in for a
// backend that could not be configured, so stages take their fallback path.
type Unavailable struct {
	Err error
}

// Generate returns u.Err.
func (u Unavailable) Generate(context.Context, string, string) (string, error) {
	if u.Err == nil {
		return "", ErrConfiguration
	}
	return "", u.Err
}

// Static always replies with Reply.
type Static struct {
	Reply string
}

// Generate returns s.Reply.
func (s Static) Generate(context.Context, string, string) (string, error) {
	return s.Reply, nil
}

// Failing always fails with a backend error.
type Failing struct{}

// Generate returns an error wrapping ErrBackend.
func (Failing) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: backend unreachable", ErrBackend)
}
