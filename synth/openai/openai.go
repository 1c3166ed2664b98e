// Package openai provides a recommendation synthesizer backed by the OpenAI
// Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/supplymesh/synth"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You are a supply chain analyst. You receive a JSON document " +
	"with per-domain analysis results (demand forecasts, inventory status, supplier " +
	"rankings). Respond with a short list of concrete, actionable recommendations, " +
	"one per line, without preamble."

// Options configure the OpenAI synthesizer.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Synthesizer asks a chat model to narrate a merged domain document into
// recommendations. It implements synth.Synthesizer.
type Synthesizer struct {
	client *openai.Client
	opts   Options
}

var _ synth.Synthesizer = (*Synthesizer)(nil)

// New creates a new OpenAI synthesizer using the official client
func New(optFns ...func(o *Options)) *Synthesizer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Synthesizer{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI synthesizer from an existing client
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Synthesizer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Synthesizer{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
	}
}

// Synthesize implements synth.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, doc []byte) ([]string, error) {
	params := openai.ChatCompletionNewParams{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(string(doc)),
		},
		Temperature:         openai.Float(s.opts.Temperature),
		MaxCompletionTokens: openai.Int(s.opts.MaxCompletionTokens),
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, fmt.Errorf("openai api error: empty completion (finish reason %q)", resp.Choices[0].FinishReason)
	}

	return synth.SplitRecommendations(text), nil
}
