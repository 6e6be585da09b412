// Package genai generates candidate leads: live through the Anthropic
// provider, or synthetically when the provider cannot be used.
package genai

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vilaweb/leadgen-cli/internal/model"
	"github.com/vilaweb/leadgen-cli/internal/resilience"
	"github.com/vilaweb/leadgen-cli/pkg/anthropic"
)

// Adapter calls the generative provider and shapes its output into
// candidate leads. It never panics and never returns a transport error to
// the caller: every failure is classified into a model.FailureReason so the
// pipeline can fall back deterministically.
type Adapter struct {
	client    anthropic.Client
	apiKey    string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
	defaulter *Defaulter
}

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	APIKey    string
	MaxTokens int64         // max response tokens, default 8192
	Timeout   time.Duration // per-call bound, default 120s
	RPM       float64       // provider requests per minute, default 10
	Defaulter *Defaulter    // nil enables defaulting with a random source
}

// NewAdapter creates an Adapter around the given client.
func NewAdapter(client anthropic.Client, opts AdapterOptions) *Adapter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.RPM <= 0 {
		opts.RPM = 10
	}
	defaulter := opts.Defaulter
	if defaulter == nil {
		defaulter = NewDefaulter(true, nil)
	}
	return &Adapter{
		client:    client,
		apiKey:    opts.APIKey,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		limiter:   rate.NewLimiter(rate.Limit(opts.RPM/60.0), 1),
		defaulter: defaulter,
	}
}

// placeholder API key values that mean "not configured".
var placeholderKeys = map[string]bool{
	"":                 true,
	"changeme":         true,
	"your-api-key":     true,
	"sk-ant-xxx":       true,
	"sk-ant-api03-xxx": true,
}

// HasCredentials reports whether a usable API key is configured.
func (a *Adapter) HasCredentials() bool {
	return !placeholderKeys[strings.TrimSpace(a.apiKey)]
}

// Attempt asks the provider for exactly criteria.Quantity candidates,
// avoiding the given company names. On success the returned reason is
// model.FailureNone; any other reason means the candidates slice is nil and
// the caller must fall back. A live batch with fewer usable candidates than
// requested is treated as a provider format error, never returned short.
func (a *Adapter) Attempt(ctx context.Context, criteria model.GenerationCriteria, modelID string, excludeNames []string) ([]model.CandidateLead, model.FailureReason) {
	if !a.HasCredentials() {
		return nil, model.FailureNoCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		zap.L().Warn("genai: rate limit wait aborted", zap.Error(err))
		return nil, model.FailureTransport
	}

	system, user := BuildPrompt(criteria, excludeNames)
	req := anthropic.MessageRequest{
		Model:     modelID,
		MaxTokens: a.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(system),
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	}

	resp, err := resilience.Do(ctx, resilience.DefaultRetryConfig(), "generate leads",
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.client.CreateMessage(ctx, req)
		})
	if err != nil {
		reason := ClassifyProviderError(err)
		zap.L().Warn("genai: provider call failed",
			zap.String("model", modelID),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return nil, reason
	}

	resp.Usage.LogCost(modelID, "leadgen")

	candidates := ParseCandidates(resp.Text(), criteria, a.defaulter)
	if len(candidates) < criteria.Quantity {
		zap.L().Warn("genai: provider returned too few usable candidates",
			zap.Int("requested", criteria.Quantity),
			zap.Int("usable", len(candidates)),
		)
		return nil, model.FailureFormatError
	}
	return candidates[:criteria.Quantity], model.FailureNone
}
