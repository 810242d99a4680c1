// Package model provides LLM integration adapters.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// The interface abstracts the differences between providers (OpenAI,
// Anthropic, Google) behind a unified API for chat-based interactions.
//
// Implementations should:
//   - Handle provider-specific authentication
//   - Convert the standard Message format to the provider's format
//   - Parse provider responses back to the standard ChatOut format
//   - Respect context cancellation and timeouts
//
// Example usage:
//
//	m := openai.NewChatModel(apiKey, "gpt-4o")
//	messages := []model.Message{
//	    {Role: model.RoleUser, Content: "What is the capital of France?"},
//	}
//	out, err := m.Chat(ctx, messages, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	// Chat sends messages to the LLM and returns the response.
	//
	// tools is an optional set of tool specifications the LLM may use;
	// pass nil when no tools are available. The response may contain
	// text, tool calls, or both.
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
//
// Typical conversation structure:
//   - System message (optional): sets context and behavior
//   - User messages: user input or questions
//   - Assistant messages: LLM responses
type Message struct {
	// Role identifies the message sender.
	// Use the Role* constants for consistency.
	Role string

	// Content contains the message text.
	Content string
}

// Standard role constants for LLM conversations.
// These align with the conventions used by major LLM providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolSpec describes a tool that an LLM can call.
//
// The Schema field follows JSON Schema format and describes the expected
// input parameters.
type ToolSpec struct {
	// Name uniquely identifies the tool.
	// Must be a valid function name (alphanumeric + underscores).
	Name string

	// Description explains what the tool does.
	// The LLM uses this to decide when to call the tool.
	Description string

	// Schema defines the tool's input parameters using JSON Schema.
	// Optional for tools with no parameters.
	Schema map[string]interface{}
}

// ChatOut represents the output from an LLM chat completion.
//
// LLMs can respond with text only, tool calls only, or both.
type ChatOut struct {
	// Text contains the LLM's generated response.
	// May be empty if the LLM only wants to call tools.
	Text string

	// ToolCalls contains tools the LLM wants to invoke.
	// Empty if the LLM provided a direct text response.
	ToolCalls []ToolCall

	// Tokens is the total token count reported by the provider,
	// zero when the provider does not report usage.
	Tokens int
}

// ToolCall represents a request from the LLM to invoke a specific tool.
//
// After the LLM requests tool calls, the application should execute each
// tool with the provided Input, collect the results, and send them back
// to the LLM in a new message.
type ToolCall struct {
	// Name identifies which tool to call.
	// Must match a ToolSpec.Name from the available tools.
	Name string

	// Input contains the parameters for the tool call.
	// Structure matches the ToolSpec.Schema for this tool.
	Input map[string]interface{}
}
