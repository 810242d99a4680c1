package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/stepflow-go/flow/model"
)

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// Example usage:
//
//	apiKey := os.Getenv("GOOGLE_API_KEY")
//	m := google.NewChatModel(apiKey, "gemini-1.5-flash")
//
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Draft a delivery update."},
//	}, nil)
type ChatModel struct {
	modelName  string
	client     googleClient
	maxRetries int
	retryDelay time.Duration
}

// googleClient defines the interface for Gemini API operations.
// This allows for easy mocking in tests.
type googleClient interface {
	generateContent(ctx context.Context, messages []model.Message) (model.ChatOut, error)
}

// NewChatModel creates a Gemini ChatModel. An empty modelName selects
// "gemini-1.5-flash".
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &ChatModel{
		modelName:  modelName,
		client:     &defaultClient{apiKey: apiKey, modelName: modelName},
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
		return model.ChatOut{}, errors.New("google adapter does not support tool specifications")
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.generateContent(ctx, messages)
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

	return model.ChatOut{}, fmt.Errorf("Gemini API failed after %d retries: %w", m.maxRetries, lastErr)
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
		"unavailable",
		"resource exhausted",
		"429",
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

// defaultClient wraps the official generative-ai-go SDK. A client is
// created per call; the SDK holds no connection state worth pooling
// here and this keeps Close handling local.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(c.modelName)

	// Gemini has no system role in conversation history; system
	// messages become the model's system instruction.
	var history []*genai.Content
	var prompt string
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			gm.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		case model.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			if i == len(messages)-1 {
				prompt = msg.Content
			} else {
				history = append(history, &genai.Content{
					Role:  "user",
					Parts: []genai.Part{genai.Text(msg.Content)},
				})
			}
		}
	}
	if prompt == "" {
		return model.ChatOut{}, errors.New("conversation must end with a user message")
	}

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.ChatOut{}, errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	out := model.ChatOut{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.Tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}
