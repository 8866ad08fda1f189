package domain

import "time"

// TaskType selects one of the two task lists.
type TaskType string

const (
	TaskShort TaskType = "short"
	TaskLong  TaskType = "long"
)

func (t TaskType) IsValid() bool {
	return t == TaskShort || t == TaskLong
}

// ParseTaskType validates a task type coming from the outside.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.IsValid() {
		return "", ErrInvalidTaskType
	}
	return t, nil
}

// Period controls how often a task's completion flag is reset.
type Period string

const (
	PeriodNone    Period = "none"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodNone, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

// DayLayout is the format of Task.LastReset.
const DayLayout = "2006-01-02"

// Day returns the UTC calendar day used for recurrence bookkeeping.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Task represents a user-owned activity item. ID is the creation time in
// unix milliseconds and is unique within its list.
type Task struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Duration  string   `json:"duration"`
	Point     int      `json:"point"`
	Completed bool     `json:"completed"`
	Tip       string   `json:"tip"`
	Expanded  bool     `json:"expanded"`
	Type      TaskType `json:"type"`
	Period    Period   `json:"period,omitempty"`
	UserID    string   `json:"user_id"`
	LastReset string   `json:"last_reset,omitempty"`
}

// TaskDraft carries the caller-provided fields of a new task; zero values
// are replaced by defaults.
type TaskDraft struct {
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
	Point    int    `json:"point"`
	Tip      string `json:"tip"`
	Period   Period `json:"period"`
}

// Task defaults.
const (
	DefaultStart    = "00:00"
	DefaultEnd      = "23:59"
	DefaultDuration = "daily"
	DefaultTip      = "none"
)

// DueForReset reports whether a recurring task must be reset on day.
// Only daily recurrence is evaluated; weekly and monthly are accepted but
// never trigger a reset.
func (t *Task) DueForReset(day string) bool {
	return t != nil && t.Period == PeriodDaily && t.LastReset != day
}
