// Package anthropic provides a recommendation synthesizer backed by the
// Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/supplymesh/synth"
)

const systemPrompt = "You are a supply chain analyst. You receive a JSON document " +
	"with per-domain analysis results (demand forecasts, inventory status, supplier " +
	"rankings). Respond with a short list of concrete, actionable recommendations, " +
	"one per line, without preamble."

// Options configures the Anthropic synthesizer (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Synthesizer asks Claude to narrate a merged domain document into
// recommendations. It implements synth.Synthesizer.
type Synthesizer struct {
	client *anthropic.Client
	opts   Options
}

var _ synth.Synthesizer = (*Synthesizer)(nil)

// New creates a new Anthropic synthesizer using the official client
func New(optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Synthesizer{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic synthesizer from an existing client
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Synthesizer {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Synthesizer{
		client: client,
		opts:   opts,
	}
}

// Synthesize implements synth.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, doc []byte) ([]string, error) {
	params := anthropic.MessageNewParams{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: anthropic.Float(s.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(doc))),
		},
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("anthropic api error: empty completion (stop reason %q)", resp.StopReason)
	}

	return synth.SplitRecommendations(text), nil
}
