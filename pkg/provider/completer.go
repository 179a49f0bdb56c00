package provider

import (
	"context"
	"strings"
)

type Completer interface {
	Complete(ctx context.Context, messages []Message, options *CompleteOptions) (*Completion, error)
}

type StreamHandler = func(ctx context.Context, completion Completion) error

type CompleteOptions struct {
	Stream StreamHandler

	Stop []string

	MaxTokens   *int
	Temperature *float32
}

type Completion struct {
	ID    string
	Model string

	Message *Message

	Usage *Usage
}

type CompletionAccumulator struct {
	id    string
	model string

	role MessageRole

	content strings.Builder

	usage *Usage
}

func (a *CompletionAccumulator) Add(c Completion) {
	if c.ID != "" {
		a.id = c.ID
	}

	if c.Model != "" {
		a.model = c.Model
	}

	if c.Message != nil {
		if c.Message.Role != "" {
			a.role = c.Message.Role
		}

		a.content.WriteString(c.Message.Content)
	}

	if c.Usage != nil {
		if a.usage == nil {
			a.usage = &Usage{}
		}

		a.usage.InputTokens += c.Usage.InputTokens
		a.usage.OutputTokens += c.Usage.OutputTokens
	}
}

func (a *CompletionAccumulator) Result() *Completion {
	role := a.role

	if role == "" {
		role = MessageRoleAssistant
	}

	return &Completion{
		ID:    a.id,
		Model: a.model,

		Message: &Message{
			Role:    role,
			Content: a.content.String(),
		},

		Usage: a.usage,
	}
}
