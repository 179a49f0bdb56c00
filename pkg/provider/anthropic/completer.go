package anthropic

import (
	"context"

	"github.com/lettera/lettera/pkg/provider"

	"github.com/anthropics/anthropic-sdk-go"
)

const defaultMaxTokens = 4096

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
	messages anthropic.MessageService
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
		Config:   cfg,
		messages: anthropic.NewMessageService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	if options == nil {
		options = new(provider.CompleteOptions)
	}

	req := c.convertMessageRequest(messages, options)

	if options.Stream != nil {
		return c.completeStream(ctx, *req, options)
	}

	return c.complete(ctx, *req, options)
}

func (c *Completer) complete(ctx context.Context, req anthropic.MessageNewParams, options *provider.CompleteOptions) (*provider.Completion, error) {
	message, err := c.messages.New(ctx, req)

	if err != nil {
		return nil, convertError(err)
	}

	var content string

	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &provider.Completion{
		ID:    message.ID,
		Model: string(message.Model),

		Message: &provider.Message{
			Role:    provider.MessageRoleAssistant,
			Content: content,
		},

		Usage: &provider.Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

func (c *Completer) completeStream(ctx context.Context, req anthropic.MessageNewParams, options *provider.CompleteOptions) (*provider.Completion, error) {
	stream := c.messages.NewStreaming(ctx, req)

	message := anthropic.Message{}
	result := provider.CompletionAccumulator{}

	for stream.Next() {
		event := stream.Current()

		if err := message.Accumulate(event); err != nil {
			return nil, err
		}

		switch event := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			delta, ok := event.Delta.AsAny().(anthropic.TextDelta)

			if !ok {
				continue
			}

			completion := provider.Completion{
				ID:    message.ID,
				Model: c.model,

				Message: &provider.Message{
					Role:    provider.MessageRoleAssistant,
					Content: delta.Text,
				},
			}

			result.Add(completion)

			if err := options.Stream(ctx, completion); err != nil {
				return nil, err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, convertError(err)
	}

	completion := result.Result()

	completion.Usage = &provider.Usage{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}

	return completion, nil
}

func (c *Completer) convertMessageRequest(input []provider.Message, options *provider.CompleteOptions) *anthropic.MessageNewParams {
	req := &anthropic.MessageNewParams{
		Model: anthropic.Model(c.model),

		MaxTokens: int64(defaultMaxTokens),
	}

	if options.MaxTokens != nil {
		req.MaxTokens = int64(*options.MaxTokens)
	}

	if options.Temperature != nil {
		req.Temperature = anthropic.Float(float64(*options.Temperature))
	}

	if len(options.Stop) > 0 {
		req.StopSequences = options.Stop
	}

	for _, m := range input {
		switch m.Role {
		case provider.MessageRoleSystem:
			req.System = append(req.System, anthropic.TextBlockParam{Text: m.Content})

		case provider.MessageRoleUser:
			req.Messages = append(req.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case provider.MessageRoleAssistant:
			req.Messages = append(req.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	return req
}
