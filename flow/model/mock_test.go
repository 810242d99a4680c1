package model

import (
	"context"
	"errors"
	"testing"
)

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()

	t.Run("returns responses in order", func(t *testing.T) {
		mock := &MockChatModel{
			Responses: []ChatOut{
				{Text: "first"},
				{Text: "second"},
			},
		}

		out, err := mock.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}}, nil)
		if err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
		if out.Text != "first" {
			t.Errorf("Text = %q, want first", out.Text)
		}

		out, _ = mock.Chat(ctx, nil, nil)
		if out.Text != "second" {
			t.Errorf("Text = %q, want second", out.Text)
		}

		// Exhausted responses repeat the last one.
		out, _ = mock.Chat(ctx, nil, nil)
		if out.Text != "second" {
			t.Errorf("Text = %q, want second repeated", out.Text)
		}
	})

	t.Run("error injection", func(t *testing.T) {
		boom := errors.New("api error")
		mock := &MockChatModel{Err: boom}

		_, err := mock.Chat(ctx, nil, nil)
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
		if mock.CallCount() != 1 {
			t.Errorf("CallCount = %d, want 1 (errors are recorded)", mock.CallCount())
		}
	})

	t.Run("records calls", func(t *testing.T) {
		mock := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}
		msgs := []Message{{Role: RoleUser, Content: "question"}}
		tools := []ToolSpec{{Name: "check_stock"}}

		if _, err := mock.Chat(ctx, msgs, tools); err != nil {
			t.Fatal(err)
		}

		if len(mock.Calls) != 1 {
			t.Fatalf("Calls = %d, want 1", len(mock.Calls))
		}
		if mock.Calls[0].Messages[0].Content != "question" {
			t.Errorf("recorded messages = %v", mock.Calls[0].Messages)
		}
		if mock.Calls[0].Tools[0].Name != "check_stock" {
			t.Errorf("recorded tools = %v", mock.Calls[0].Tools)
		}
	})

	t.Run("reset", func(t *testing.T) {
		mock := &MockChatModel{Responses: []ChatOut{{Text: "a"}, {Text: "b"}}}
		_, _ = mock.Chat(ctx, nil, nil)
		_, _ = mock.Chat(ctx, nil, nil)

		mock.Reset()
		if mock.CallCount() != 0 {
			t.Errorf("CallCount after Reset = %d", mock.CallCount())
		}
		out, _ := mock.Chat(ctx, nil, nil)
		if out.Text != "a" {
			t.Errorf("Text after Reset = %q, want a", out.Text)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		mock := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := mock.Chat(cctx, nil, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
