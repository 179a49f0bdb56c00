package openai

import (
	"context"

	"github.com/lettera/lettera/pkg/provider"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
	completions openai.ChatCompletionService
}

func NewCompleter(url, model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Completer{
		Config:      cfg,
		completions: openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	if options == nil {
		options = new(provider.CompleteOptions)
	}

	req := c.convertCompletionRequest(messages, options)

	if options.Stream != nil {
		return c.completeStream(ctx, *req, options)
	}

	return c.complete(ctx, *req, options)
}

func (c *Completer) complete(ctx context.Context, req openai.ChatCompletionNewParams, options *provider.CompleteOptions) (*provider.Completion, error) {
	completion, err := c.completions.New(ctx, req, c.requestOptions()...)

	if err != nil {
		return nil, convertError(err)
	}

	choice := completion.Choices[0]

	result := &provider.Completion{
		ID:    completion.ID,
		Model: completion.Model,

		Message: &provider.Message{
			Role:    provider.MessageRoleAssistant,
			Content: choice.Message.Content,
		},
	}

	if val := toUsage(completion.Usage); val != nil {
		result.Usage = val
	}

	return result, nil
}

func (c *Completer) completeStream(ctx context.Context, req openai.ChatCompletionNewParams, options *provider.CompleteOptions) (*provider.Completion, error) {
	req.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.completions.NewStreaming(ctx, req, c.requestOptions()...)

	result := provider.CompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()

		delta := provider.Completion{
			ID:    chunk.ID,
			Model: chunk.Model,

			Message: &provider.Message{
				Role: provider.MessageRoleAssistant,
			},

			Usage: toUsage(chunk.Usage),
		}

		if len(chunk.Choices) > 0 {
			delta.Message.Content = chunk.Choices[0].Delta.Content
		}

		result.Add(delta)

		if err := options.Stream(ctx, delta); err != nil {
			return nil, err
		}
	}

	if err := stream.Err(); err != nil {
		return nil, convertError(err)
	}

	return result.Result(), nil
}

func (c *Completer) convertCompletionRequest(input []provider.Message, options *provider.CompleteOptions) *openai.ChatCompletionNewParams {
	req := &openai.ChatCompletionNewParams{
		Model: c.model,
	}

	for _, m := range input {
		switch m.Role {
		case provider.MessageRoleSystem:
			req.Messages = append(req.Messages, openai.SystemMessage(m.Content))

		case provider.MessageRoleUser:
			req.Messages = append(req.Messages, openai.UserMessage(m.Content))

		case provider.MessageRoleAssistant:
			req.Messages = append(req.Messages, openai.AssistantMessage(m.Content))
		}
	}

	if len(options.Stop) > 0 {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: options.Stop,
		}
	}

	if options.MaxTokens != nil {
		req.MaxCompletionTokens = openai.Int(int64(*options.MaxTokens))
	}

	if options.Temperature != nil {
		req.Temperature = openai.Float(float64(*options.Temperature))
	}

	return req
}

// requestOptions injects OpenRouter-style candidate routing when configured
func (c *Completer) requestOptions() []option.RequestOption {
	if len(c.candidates) == 0 {
		return nil
	}

	models := append([]string{c.model}, c.candidates...)

	return []option.RequestOption{
		option.WithJSONSet("models", models),
		option.WithJSONSet("provider", map[string]string{"sort": "latency"}),
	}
}

func toUsage(usage openai.CompletionUsage) *provider.Usage {
	if usage.TotalTokens == 0 {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(usage.PromptTokens),
		OutputTokens: int(usage.CompletionTokens),
	}
}
