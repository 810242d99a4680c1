package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(Event{
		ThreadID:  "t1",
		StepIndex: 2,
		StepName:  "approve",
		Msg:       "step_start",
	})

	got := buf.String()
	for _, want := range []string{"[step_start]", "threadID=t1", "stepIndex=2", "step=approve"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "meta=") {
		t.Errorf("output %q has meta for event without metadata", got)
	}
}

func TestLogEmitterTextWithMeta(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(Event{
		ThreadID: "t1",
		StepName: "approve",
		Msg:      "step_end",
		Meta:     map[string]interface{}{"duration_ms": 12},
	})

	got := buf.String()
	if !strings.Contains(got, "meta=") || !strings.Contains(got, "duration_ms") {
		t.Errorf("output %q missing meta", got)
	}
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{
		ThreadID:  "t1",
		StepIndex: 1,
		StepName:  "approve",
		Msg:       "paused",
		Meta:      map[string]interface{}{"reason": "breakpoint"},
	})

	var decoded struct {
		ThreadID  string                 `json:"threadID"`
		StepIndex int                    `json:"stepIndex"`
		StepName  string                 `json:"step"`
		Msg       string                 `json:"msg"`
		Meta      map[string]interface{} `json:"meta"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.ThreadID != "t1" || decoded.StepName != "approve" || decoded.Msg != "paused" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Meta["reason"] != "breakpoint" {
		t.Errorf("meta = %v", decoded.Meta)
	}
}

func TestLogEmitterJSONL(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{ThreadID: "t1", Msg: "step_start"})
	emitter.Emit(Event{ThreadID: "t1", Msg: "step_end"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %d is not valid JSON: %s", i, line)
		}
	}
}

func TestLogEmitterNilWriterDefaultsToStdout(t *testing.T) {
	emitter := NewLogEmitter(nil, false)
	if emitter.writer == nil {
		t.Error("writer is nil")
	}
}
