package nutrition

import (
	"encoding/json"
	"strings"
)

// Normalize extracts the JSON object from a raw model reply and decodes it
// into out. Models regularly prepend commentary before the object, so the
// payload is taken from the first '{' to the end of the string. Known
// fragility: a reply that appends prose after the object fails the parse;
// fixing that would change observable behavior on such inputs, so it is
// left as is.
//
// Normalize does not validate the schema and does not coerce string-typed
// numbers; that is the extractor's job.
func Normalize(raw string, out any) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyResponse
	}

	start := strings.Index(raw, "{")
	if start < 0 {
		return ErrNoJSONFound
	}

	payload := strings.TrimSpace(raw[start:])
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &MalformedJSONError{Err: err}
	}
	return nil
}
