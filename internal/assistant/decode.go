package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var fence = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// ErrInvalidResponse reports model output that is not the expected JSON.
var ErrInvalidResponse = errors.New("invalid model response")

// StripFence removes one markdown code fence wrapping the whole text.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(text); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return text
}

// decodeJSON strips a fence, requires the field at path to be an array,
// then unmarshals the document into v.
func decodeJSON(text, arrayPath string, v any) error {
	body := StripFence(text)
	if !gjson.Valid(body) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidResponse)
	}
	if arrayPath != "" && !gjson.Get(body, arrayPath).IsArray() {
		return fmt.Errorf("%w: %q is not an array", ErrInvalidResponse, arrayPath)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
