package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorWithKeepsIdentity(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save board: %w", ErrPersistFailed.With(cause))

	if !errors.Is(err, ErrPersistFailed) {
		t.Error("wrapped sentinel not matched")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
	if errors.Is(err, ErrStorageUnavailable) {
		t.Error("matched a different sentinel with the same code")
	}
	if !IsDomainError(err, ErrCodeUnavailable) {
		t.Error("code lookup failed")
	}
}

func TestCapMessages(t *testing.T) {
	msgs := make([]ChatMessage, MaxConversationMessages+5)
	for i := range msgs {
		msgs[i].Content = fmt.Sprint(i)
	}
	capped := CapMessages(msgs)
	if len(capped) != MaxConversationMessages || capped[0].Content != "5" {
		t.Fatalf("capped = %d starting at %q", len(capped), capped[0].Content)
	}
	capped[0].Content = "changed"
	if msgs[5].Content != "5" {
		t.Error("CapMessages must copy")
	}
}

func TestSummarize(t *testing.T) {
	conv := &Conversation{Messages: []ChatMessage{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: strings.Repeat("x", 80)},
		{Role: RoleUser, Content: "last"},
	}}
	preview := conv.Summarize().Preview
	if len(preview) != 2 || len([]rune(preview[0])) != 50 || preview[1] != "last" {
		t.Errorf("preview = %q", preview)
	}
}

func TestDueForReset(t *testing.T) {
	tests := []struct {
		task Task
		want bool
	}{
		{Task{Period: PeriodDaily, LastReset: "2025-01-01"}, true},
		{Task{Period: PeriodDaily, LastReset: "2025-01-02"}, false},
		{Task{Period: PeriodWeekly, LastReset: "2024-12-01"}, false},
		{Task{Period: PeriodNone}, false},
	}
	for _, tt := range tests {
		if got := tt.task.DueForReset("2025-01-02"); got != tt.want {
			t.Errorf("%+v: got %v", tt.task, got)
		}
	}
}

func TestBoardClone(t *testing.T) {
	b := &Board{UserID: "u", ShortTasks: []Task{{ID: 1}}}
	cp := b.Clone()
	cp.ShortTasks[0].Name = "changed"
	if b.ShortTasks[0].Name != "" {
		t.Error("clone shares task storage")
	}
	if cp.Tasks(TaskShort)[0].ID != 1 || len(cp.Tasks(TaskLong)) != 0 {
		t.Errorf("clone = %+v", cp)
	}
}

func TestOperationDecode(t *testing.T) {
	op := Operation{"action": "toggle_task", "type": "long", "id": float64(42)}
	if op.Action() != "toggle_task" {
		t.Errorf("action = %q", op.Action())
	}
	var args struct {
		Type TaskType `json:"type"`
		ID   int64    `json:"id"`
	}
	if err := op.Decode(&args); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if args.Type != TaskLong || args.ID != 42 {
		t.Errorf("args = %+v", args)
	}
}
