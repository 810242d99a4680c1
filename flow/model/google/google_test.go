package google

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/stepflow-go/flow/model"
)

type fakeClient struct {
	out   model.ChatOut
	err   error
	calls int
}

func (f *fakeClient) generateContent(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	f.calls++
	if f.err != nil {
		return model.ChatOut{}, f.err
	}
	return f.out, nil
}

func testChatModel(client googleClient) *ChatModel {
	return &ChatModel{
		modelName:  "gemini-1.5-flash",
		client:     client,
		maxRetries: 2,
		retryDelay: time.Millisecond,
	}
}

func TestChatModelSuccess(t *testing.T) {
	fake := &fakeClient{out: model.ChatOut{Text: "update drafted", Tokens: 20}}
	m := testChatModel(fake)

	out, err := m.Chat(context.Background(), []model.Message{
		{Role: model.RoleUser, Content: "Draft a delivery update."},
	}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if out.Text != "update drafted" {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestChatModelRetriesUnavailable(t *testing.T) {
	fake := &fakeClient{err: errors.New("503 service unavailable")}
	m := testChatModel(fake)

	if _, err := m.Chat(context.Background(), nil, nil); err == nil {
		t.Fatal("Chat succeeded, want exhausted retries")
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestChatModelSafetyErrorNotRetried(t *testing.T) {
	fake := &fakeClient{err: errors.New("blocked by safety filter")}
	m := testChatModel(fake)

	if _, err := m.Chat(context.Background(), nil, nil); err == nil {
		t.Fatal("Chat succeeded, want error")
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1 (non-transient)", fake.calls)
	}
}

func TestChatModelRejectsTools(t *testing.T) {
	m := testChatModel(&fakeClient{})
	if _, err := m.Chat(context.Background(), nil, []model.ToolSpec{{Name: "t"}}); err == nil {
		t.Fatal("Chat with tools succeeded, want error")
	}
}

func TestNewChatModelDefaults(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "gemini-1.5-flash" {
		t.Errorf("modelName = %q, want default", m.modelName)
	}
}
