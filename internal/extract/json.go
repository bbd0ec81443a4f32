package extract

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrBadReply marks a model reply that could not be used: empty text,
// missing JSON, or JSON that does not decode. Callers treat it as an
// invalid conversational turn, never as a crash.
var ErrBadReply = errors.New("extract: model reply was not usable")

// unmarshalLoose decodes a model reply into v, tolerating markdown
// code fences and prose wrapped around the JSON object.
func unmarshalLoose(text string, v any) error {
	text = stripFences(text)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return ErrBadReply
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return ErrBadReply
	}
	return nil
}

// stripFences removes ``` or ```json fences if the reply is wrapped
// in a markdown code block.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
