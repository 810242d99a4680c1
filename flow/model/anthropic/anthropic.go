package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/stepflow-go/flow/model"
)

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// Example usage:
//
//	apiKey := os.Getenv("ANTHROPIC_API_KEY")
//	m := anthropic.NewChatModel(apiKey, "claude-sonnet-4-20250514")
//
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Summarize this report."},
//	}, nil)
type ChatModel struct {
	modelName  string
	client     anthropicClient
	maxRetries int
	retryDelay time.Duration
}

// anthropicClient defines the interface for Anthropic API operations.
// This allows for easy mocking in tests.
type anthropicClient interface {
	createMessage(ctx context.Context, messages []model.Message) (model.ChatOut, error)
}

// NewChatModel creates an Anthropic ChatModel. An empty modelName
// selects "claude-sonnet-4-20250514".
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-20250514"
	}

	return &ChatModel{
		modelName:  modelName,
		client:     newDefaultClient(apiKey, modelName),
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Chat implements the model.ChatModel interface.
//
// Tool specifications are not supported by this adapter; passing a
// non-empty tools slice returns an error.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if len(tools) > 0 {
		return model.ChatOut{}, errors.New("anthropic adapter does not support tool specifications")
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.createMessage(ctx, messages)
		if err == nil {
			return out, nil
		}

		lastErr = err

		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		select {
		case <-time.After(m.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}

	return model.ChatOut{}, fmt.Errorf("Anthropic API failed after %d retries: %w", m.maxRetries, lastErr)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	msgLower := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"network",
		"connection",
		"overloaded",
		"rate limit",
		"429",
		"529",
		"503",
		"500",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

// defaultClient wraps the official anthropic-sdk-go client.
type defaultClient struct {
	client    *anthropic.Client
	modelName string
}

func newDefaultClient(apiKey, modelName string) *defaultClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &defaultClient{
		client:    &client,
		modelName: modelName,
	}
}

func (c *defaultClient) createMessage(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	var (
		system []anthropic.TextBlockParam
		turns  []anthropic.MessageParam
	)
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: 4096,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic message: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return model.ChatOut{
		Text:   text.String(),
		Tokens: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}
