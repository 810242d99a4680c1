package tool

import (
	"context"
	"sync"
)

// MockTool is a test implementation of Tool.
//
// Use MockTool in tests to verify workflow behavior without executing
// actual tool logic. It provides a configurable name, response
// sequences, call history tracking, and error injection. Safe for
// concurrent use.
//
// Example usage:
//
//	mock := &MockTool{
//	    ToolName: "check_stock",
//	    Responses: []map[string]interface{}{
//	        {"on_hand": 0},
//	    },
//	}
//	reg.Rebind("check_stock", mock)
type MockTool struct {
	// ToolName is the identifier returned by Name().
	ToolName string

	// Responses contains the sequence of outputs to return.
	// Each call returns the next response in order; once consumed,
	// the last response repeats.
	Responses []map[string]interface{}

	// Err, if set, will be returned by Call instead of a response.
	Err error

	// Calls tracks the history of all Call invocations.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records a single invocation of Call.
type MockToolCall struct {
	Input map[string]interface{}
}

// Name implements the Tool interface.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Call implements the Tool interface. The call is recorded in Calls
// regardless of outcome.
func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: input})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears the call history and resets the response index.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
