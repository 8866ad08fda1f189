package assistant

import (
	"encoding/json"
	"regexp"

	"github.com/fastygo/taskpoints/domain"
)

var operationPattern = regexp.MustCompile(`(?s)<!--\s*(\{.*?\})\s*-->`)

// ParseOperation extracts the JSON object from the first
// <!-- {...} --> comment of a reply. Anything unparsable yields nil.
func ParseOperation(content string) domain.Operation {
	m := operationPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var op domain.Operation
	if err := json.Unmarshal([]byte(m[1]), &op); err != nil {
		return nil
	}
	return op
}
