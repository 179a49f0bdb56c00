package google

import (
	"context"

	"github.com/lettera/lettera/pkg/provider"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
}

func NewCompleter(model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Completer{
		Config: cfg,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) (*provider.Completion, error) {
	if options == nil {
		options = new(provider.CompleteOptions)
	}

	client, err := c.newClient(ctx)

	if err != nil {
		return nil, err
	}

	contents, config := convertRequest(messages, options)

	if options.Stream != nil {
		return c.completeStream(ctx, client, contents, config, options)
	}

	return c.complete(ctx, client, contents, config, options)
}

func (c *Completer) complete(ctx context.Context, client *genai.Client, contents []*genai.Content, config *genai.GenerateContentConfig, options *provider.CompleteOptions) (*provider.Completion, error) {
	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)

	if err != nil {
		return nil, convertError(err)
	}

	return &provider.Completion{
		ID:    uuid.NewString(),
		Model: c.model,

		Message: &provider.Message{
			Role:    provider.MessageRoleAssistant,
			Content: resp.Text(),
		},

		Usage: toUsage(resp.UsageMetadata),
	}, nil
}

func (c *Completer) completeStream(ctx context.Context, client *genai.Client, contents []*genai.Content, config *genai.GenerateContentConfig, options *provider.CompleteOptions) (*provider.Completion, error) {
	result := provider.CompletionAccumulator{}

	id := uuid.NewString()

	for resp, err := range client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			return nil, convertError(err)
		}

		delta := provider.Completion{
			ID:    id,
			Model: c.model,

			Message: &provider.Message{
				Role:    provider.MessageRoleAssistant,
				Content: resp.Text(),
			},

			Usage: toUsage(resp.UsageMetadata),
		}

		result.Add(delta)

		if err := options.Stream(ctx, delta); err != nil {
			return nil, err
		}
	}

	return result.Result(), nil
}

func convertRequest(messages []provider.Message, options *provider.CompleteOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}

	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case provider.MessageRoleSystem:
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)

		case provider.MessageRoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case provider.MessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}

	if len(options.Stop) > 0 {
		config.StopSequences = options.Stop
	}

	if options.MaxTokens != nil {
		config.MaxOutputTokens = int32(*options.MaxTokens)
	}

	if options.Temperature != nil {
		config.Temperature = options.Temperature
	}

	return contents, config
}

func toUsage(metadata *genai.GenerateContentResponseUsageMetadata) *provider.Usage {
	if metadata == nil {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(metadata.PromptTokenCount),
		OutputTokens: int(metadata.CandidatesTokenCount),
	}
}
