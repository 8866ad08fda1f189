package domain

import "encoding/json"

// Operation is a structured command the assistant embedded in a reply,
// e.g. {"action": "add_task", "type": "short", "name": "Read"}.
type Operation map[string]any

// Action names the command to run.
func (o Operation) Action() string {
	s, _ := o["action"].(string)
	return s
}

// Decode converts the operation into a typed argument struct.
func (o Operation) Decode(v any) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
