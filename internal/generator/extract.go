package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenced = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON returns the JSON object in a model reply. A fenced ```json
// block wins; otherwise the outermost {...} span is used, so prose before
// or after the object is tolerated.
func ExtractJSON(reply string) (string, error) {
	if m := fenced.FindStringSubmatch(reply); m != nil {
		return m[1], nil
	}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrInvalidOutput)
	}
	return reply[start : end+1], nil
}

// decode extracts and unmarshals a reply into T, then validates it.
func decode[T interface{ validate() error }](reply string) (T, error) {
	var out T
	raw, err := ExtractJSON(reply)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := out.validate(); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return out, nil
}
