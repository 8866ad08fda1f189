package monitor

import "time"

// Status is the latest probe result.
type Status struct {
	Components map[string]bool `json:"components"`
	Online     bool            `json:"online"`
	BufferSize int             `json:"buffer_size"`
	LastCheck  time.Time       `json:"last_check"`
}
